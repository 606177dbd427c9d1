package treestate

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func TestHandleKeyRoutesKeyDownEvents(t *testing.T) {
	ctx := context.Background()
	toggles := 0
	hist := &stubHistory{back: true, forward: true}
	views := &recordingViews{}
	c := New(WithToggle(func() { toggles++ }), WithHistory(hist), WithViews(views))

	cases := []struct {
		name     string
		event    KeyEvent
		consumed bool
	}{
		{"escape toggles", KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyEsc}, Down: true}, true},
		{"ctrl+z undoes", KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyCtrlZ}, Down: true}, true},
		{"ctrl+y redoes", KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyCtrlY}, Down: true}, true},
		{"key up ignored", KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyCtrlZ}, Down: false}, false},
		{"plain z ignored", KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}}, Down: true}, false},
		{"enter ignored", KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyEnter}, Down: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.HandleKey(ctx, tc.event); got != tc.consumed {
				t.Fatalf("expected consumed=%v, got %v", tc.consumed, got)
			}
		})
	}

	if toggles != 1 {
		t.Fatalf("expected one toggle, got %d", toggles)
	}
	if hist.steps != 2 || views.previews != 2 {
		t.Fatalf("expected one undo and one redo, got steps=%d refreshes=%d", hist.steps, views.previews)
	}
}

func TestHandleKeyConsumesUndoAtHistoryBoundary(t *testing.T) {
	views := &recordingViews{}
	c := New(WithHistory(&stubHistory{}), WithViews(views))

	if !c.HandleKey(context.Background(), KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyCtrlZ}, Down: true}) {
		t.Fatalf("expected bound key consumed")
	}
	if views.previews != 0 {
		t.Fatalf("expected no refresh when history is empty")
	}
}

func TestWithKeyMapOverridesBindings(t *testing.T) {
	keys := DefaultKeyMap()
	keys.Undo = key.NewBinding(key.WithKeys("u"))
	hist := &stubHistory{back: true}
	c := New(WithKeyMap(keys), WithHistory(hist))

	ctx := context.Background()
	if c.HandleKey(ctx, KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyCtrlZ}, Down: true}) {
		t.Fatalf("expected default undo binding replaced")
	}
	if !c.HandleKey(ctx, KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}}, Down: true}) {
		t.Fatalf("expected custom undo binding to match")
	}
	if hist.steps != 1 {
		t.Fatalf("expected one undo step, got %d", hist.steps)
	}
	if len(c.KeyMap().ShortHelp()) != 3 {
		t.Fatalf("expected three help entries")
	}
}

func TestToggleWithoutCallbackIsStillConsumed(t *testing.T) {
	c := New()
	if !c.HandleKey(context.Background(), KeyEvent{Msg: tea.KeyMsg{Type: tea.KeyEsc}, Down: true}) {
		t.Fatalf("expected escape consumed")
	}
}
