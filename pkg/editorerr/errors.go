// Package editorerr defines the failure taxonomy shared by the editor core:
// parse failures, persistence failures and clipboard unavailability. Every
// type wraps its cause so callers can use errors.Is / errors.As.
package editorerr

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrClipboardUnavailable reports that the system clipboard cannot be used.
var ErrClipboardUnavailable = errors.New("clipboard: unavailable")

// ParseError captures malformed JSON text along with where it came from
// (file, autosave, clipboard).
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source == "" {
		return fmt.Sprintf("tree: parse: %v", e.Err)
	}
	return fmt.Sprintf("tree: parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PersistenceKind classifies the cause of a PersistenceError for diagnostics.
type PersistenceKind string

const (
	KindNotFound   PersistenceKind = "not_found"
	KindPermission PersistenceKind = "permission"
	KindOther      PersistenceKind = "other"
)

// PersistenceError captures an I/O failure on the autosave or a save target.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path == "" {
		return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind reports a coarse classification of the underlying cause. It does not
// change how the failure is recovered.
func (e *PersistenceError) Kind() PersistenceKind {
	if e == nil || e.Err == nil {
		return KindOther
	}
	switch {
	case errors.Is(e.Err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(e.Err, fs.ErrPermission):
		return KindPermission
	default:
		return KindOther
	}
}

// ClipboardError wraps a clipboard access failure. It always matches
// ErrClipboardUnavailable.
type ClipboardError struct {
	Op  string
	Err error
}

func (e *ClipboardError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("clipboard: %s: unavailable", e.Op)
	}
	return fmt.Sprintf("clipboard: %s: %v", e.Op, e.Err)
}

func (e *ClipboardError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrClipboardUnavailable}
	}
	return []error{ErrClipboardUnavailable, e.Err}
}

// NewParseError wraps err unless it already is a ParseError.
func NewParseError(source string, err error) error {
	if err == nil {
		return nil
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if parseErr.Source == "" {
			parseErr.Source = source
		}
		return parseErr
	}
	return &ParseError{Source: source, Err: err}
}

// NewPersistenceError wraps err with the operation and path that failed.
func NewPersistenceError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return err
	}
	return &PersistenceError{Op: op, Path: path, Err: err}
}
