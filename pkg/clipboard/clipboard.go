// Package clipboard moves editor documents through a shared text clipboard.
// The clipboard itself is a capability so hosts and tests can substitute it.
package clipboard

import (
	"sync"

	system "github.com/atotto/clipboard"
	"github.com/goliatone/go-treestate/pkg/editorerr"
)

// Clipboard reads and writes plain text. ReadText reports ok=false when the
// clipboard holds no text.
type Clipboard interface {
	ReadText() (text string, ok bool, err error)
	WriteText(text string) error
}

// System is the operating system clipboard.
type System struct{}

// ReadText implements Clipboard.
func (System) ReadText() (string, bool, error) {
	if system.Unsupported {
		return "", false, &editorerr.ClipboardError{Op: "read"}
	}
	text, err := system.ReadAll()
	if err != nil {
		return "", false, &editorerr.ClipboardError{Op: "read", Err: err}
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// WriteText implements Clipboard.
func (System) WriteText(text string) error {
	if system.Unsupported {
		return &editorerr.ClipboardError{Op: "write"}
	}
	if err := system.WriteAll(text); err != nil {
		return &editorerr.ClipboardError{Op: "write", Err: err}
	}
	return nil
}

// Memory is an in-process clipboard for tests and headless hosts.
type Memory struct {
	mu   sync.Mutex
	text string
	has  bool
	// Unavailable makes every access fail with ErrClipboardUnavailable.
	Unavailable bool
}

// NewMemory returns a Memory clipboard, optionally seeded with text.
func NewMemory(seed ...string) *Memory {
	m := &Memory{}
	if len(seed) > 0 {
		m.text = seed[0]
		m.has = true
	}
	return m
}

// ReadText implements Clipboard.
func (m *Memory) ReadText() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return "", false, &editorerr.ClipboardError{Op: "read"}
	}
	return m.text, m.has, nil
}

// WriteText implements Clipboard.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return &editorerr.ClipboardError{Op: "write"}
	}
	m.text = text
	m.has = true
	return nil
}

// Text returns the current content.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}
