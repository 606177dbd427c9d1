package tree

import (
	"bytes"
	"unicode/utf8"
)

// Selection is a rune range [Start, End) within an inline edit text.
type Selection struct {
	Start int
	End   int
}

// InlineText renders a single node as the one-line text shown by an inline
// editor: `"key":value` for key/value pairs, the bare value for scalars, and
// an empty container (prefixed by its key when it has one) otherwise.
func InlineText(n *Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	switch n.Kind {
	case KindKeyValue:
		buf.WriteString(keyPrefix(n.Key))
		_ = writeScalar(&buf, n.Value)
	case KindValue:
		_ = writeScalar(&buf, n.Value)
	case KindObject:
		if n.Key != "" {
			buf.WriteString(keyPrefix(n.Key))
		}
		buf.WriteString("{}")
	case KindArray:
		if n.Key != "" {
			buf.WriteString(keyPrefix(n.Key))
		}
		buf.WriteString("[]")
	}
	return buf.String()
}

// InlineSelection returns the range an inline editor should pre-select for
// n. For key/value pairs only the value is selected, excluding the quotes
// of string values. Anything else is selected whole.
func InlineSelection(n *Node) Selection {
	text := InlineText(n)
	total := utf8.RuneCountInString(text)
	if n == nil || n.Kind != KindKeyValue {
		return Selection{Start: 0, End: total}
	}
	start := utf8.RuneCountInString(keyPrefix(n.Key))
	if _, ok := n.Value.(string); ok {
		return Selection{Start: start + 1, End: total - 1}
	}
	return Selection{Start: start, End: total}
}

func keyPrefix(key string) string {
	var buf bytes.Buffer
	_ = writeScalar(&buf, key)
	buf.WriteByte(':')
	return buf.String()
}
