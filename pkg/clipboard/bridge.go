package clipboard

import (
	"github.com/goliatone/go-treestate/pkg/editorerr"
	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger attaches a logger for recovered failures.
func WithLogger(logger logging.Logger) Option {
	return func(b *Bridge) {
		b.logger = logging.OrNop(logger)
	}
}

// Bridge converts between trees and clipboard text.
type Bridge struct {
	clipboard Clipboard
	logger    logging.Logger
}

// NewBridge builds a Bridge over cb. A nil cb uses the system clipboard.
func NewBridge(cb Clipboard, opts ...Option) *Bridge {
	if cb == nil {
		cb = System{}
	}
	b := &Bridge{clipboard: cb, logger: logging.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Copy places the pretty-printed document on the clipboard. A nil root is
// a no-op. Failures are logged and reported through the returned bool.
func (b *Bridge) Copy(root *tree.Node) bool {
	if root == nil {
		return false
	}
	text, err := tree.MarshalString(root)
	if err != nil {
		b.warn("clipboard.copy", "could not serialize editor state", err)
		return false
	}
	if err := b.clipboard.WriteText(text); err != nil {
		b.warn("clipboard.copy", "clipboard inaccessible", err)
		return false
	}
	return true
}

// Paste reads the clipboard and parses it as a document. ok=false without
// an error means there was no text. Unreadable clipboards and invalid JSON
// are logged and returned.
func (b *Bridge) Paste() (*tree.Node, bool, error) {
	text, ok, err := b.clipboard.ReadText()
	if err != nil {
		b.warn("clipboard.paste", "could not fetch clipboard contents", err)
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	root, err := tree.ParseString(text)
	if err != nil {
		err = editorerr.NewParseError("clipboard", err)
		b.warn("clipboard.paste", "could not construct a valid tree from clipboard contents", err)
		return nil, false, err
	}
	return root, true, nil
}

func (b *Bridge) warn(op, message string, err error) {
	b.logger.Log(logging.Event{Level: logging.LevelWarn, Op: op, Message: message, Err: err})
}
