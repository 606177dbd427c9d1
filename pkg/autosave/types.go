package autosave

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// ErrPathRequired indicates a Ref without a path.
var ErrPathRequired = errors.New("autosave: path is required")

// Ref identifies the autosave file for one edited asset.
type Ref struct {
	Asset string
	Path  string
}

// Meta is storage-owned metadata describing a snapshot.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	Size       int       `json:"size,omitempty"`
}

// Store loads/saves/deletes the bytes of a single autosave reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (data []byte, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, data []byte, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

// PathFunc returns the autosave location for the asset being edited.
type PathFunc func() (string, error)

// StaticPath returns a PathFunc that always yields path.
func StaticPath(path string) PathFunc {
	return func() (string, error) {
		return path, nil
	}
}

// Identifier returns the canonical storage key for the reference.
func (r Ref) Identifier() (string, error) {
	path := strings.TrimSpace(r.Path)
	if path == "" {
		return "", ErrPathRequired
	}
	return filepath.Clean(path), nil
}
