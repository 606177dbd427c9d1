package treestate

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMsg is the key message delivered by bubbletea hosts.
type KeyMsg = tea.KeyMsg

// KeyMap binds the editor's key surface.
type KeyMap struct {
	Toggle key.Binding
	Undo   key.Binding
	Redo   key.Binding
}

// DefaultKeyMap binds Escape, Ctrl+Z and Ctrl+Y.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "toggle editor"),
		),
		Undo: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "redo"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Undo, k.Redo}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// HandleKey routes a key-down event to the toggle callback, Undo or Redo
// and reports whether the event was consumed. Key-up events and unbound
// keys are never consumed. A bound undo/redo key is consumed even when the
// history has nothing to step to.
func (c *Controller) HandleKey(ctx context.Context, event KeyEvent) bool {
	if !event.Down {
		return false
	}
	switch {
	case key.Matches(event.Msg, c.keys.Toggle):
		if c.cfg.toggle != nil {
			c.cfg.toggle()
		}
		return true
	case key.Matches(event.Msg, c.keys.Undo):
		c.Undo(ctx)
		return true
	case key.Matches(event.Msg, c.keys.Redo):
		c.Redo(ctx)
		return true
	default:
		return false
	}
}

// KeyMap returns the active bindings.
func (c *Controller) KeyMap() KeyMap {
	return c.keys
}
