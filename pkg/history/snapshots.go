// Package history provides a snapshot based undo/redo stack for hosts that
// do not bring their own edit history.
package history

import (
	"sync"

	"github.com/goliatone/go-treestate/tree"
)

// DefaultLimit bounds the number of snapshots kept by NewSnapshots.
const DefaultLimit = 100

// Snapshots keeps whole-tree clones with a cursor at the current entry.
type Snapshots struct {
	mu      sync.Mutex
	entries []*tree.Node
	cursor  int
	limit   int
}

// NewSnapshots returns an empty history holding at most limit entries.
// A limit below 2 uses DefaultLimit.
func NewSnapshots(limit int) *Snapshots {
	if limit < 2 {
		limit = DefaultLimit
	}
	return &Snapshots{cursor: -1, limit: limit}
}

// Record stores a clone of root as the newest entry, dropping any entries
// that could have been redone and the oldest entry once the limit is hit.
func (s *Snapshots) Record(root *tree.Node) {
	if root == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries[:s.cursor+1], root.Clone())
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append([]*tree.Node(nil), s.entries[over:]...)
	}
	s.cursor = len(s.entries) - 1
}

// StepBack moves to the previous entry.
func (s *Snapshots) StepBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor <= 0 {
		return false
	}
	s.cursor--
	return true
}

// StepForward moves to the next entry.
func (s *Snapshots) StepForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 || s.cursor >= len(s.entries)-1 {
		return false
	}
	s.cursor++
	return true
}

// Root returns a clone of the current entry, or nil when empty.
func (s *Snapshots) Root() *tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 {
		return nil
	}
	return s.entries[s.cursor].Clone()
}

// Len reports the number of stored entries.
func (s *Snapshots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset drops every entry.
func (s *Snapshots) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.cursor = -1
}
