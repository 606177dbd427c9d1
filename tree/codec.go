package tree

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-treestate/pkg/editorerr"
	"github.com/tailscale/hujson"
)

// Indent is the indentation used by Marshal.
const Indent = "  "

var errTrailingContent = errors.New("unexpected content after top-level value")

// Parse converts strict JSON text into a tree. Malformed input, including
// anything after the top-level value, yields an *editorerr.ParseError.
func Parse(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}

// Decode is Parse reading from r. Nesting depth is not limited.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	root, err := decodeNode(dec)
	if err != nil {
		return nil, editorerr.NewParseError("", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingContent
		}
		return nil, editorerr.NewParseError("", err)
	}
	return root, nil
}

// ParseString is Parse for string input.
func ParseString(text string) (*Node, error) {
	return Parse([]byte(text))
}

// ParseLenient reads the first JSON value of hand edited or partially
// written text. On top of strict JSON it accepts comments (//, /* */ and
// #), trailing commas, single quoted strings, unquoted names and string
// values, ; between elements, = or => between names and values, and a
// leading )]}' guard. Anything after the first value is ignored.
func ParseLenient(data []byte) (*Node, error) {
	first := normalizeLenient(data)
	standard, err := hujson.Standardize(first)
	if err != nil {
		return nil, editorerr.NewParseError("", err)
	}
	return Parse(standard)
}

func decodeNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string, json.Number, bool, nil:
		return &Node{Kind: KindValue, Value: t}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	node := &Node{Kind: KindObject, Children: []*Node{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		child, err := decodeNode(dec)
		if err != nil {
			return nil, err
		}
		child.Key = key
		if child.Kind == KindValue {
			child.Kind = KindKeyValue
		}
		node.Children = append(node.Children, child)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return node, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	node := &Node{Kind: KindArray, Children: []*Node{}}
	for dec.More() {
		child, err := decodeNode(dec)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return node, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// Marshal renders the tree as pretty-printed JSON text, keeping child order.
// It only fails when the tree is malformed.
func Marshal(n *Node) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, n); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// MarshalString is Marshal returning a string.
func MarshalString(n *Node) (string, error) {
	data, err := Marshal(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encode writes the Marshal form of n to w. Nesting depth is not limited.
func Encode(w io.Writer, n *Node) error {
	if err := Validate(n); err != nil {
		return err
	}
	enc := &encoder{w: bufio.NewWriter(w)}
	if err := enc.node(n, 0); err != nil {
		return err
	}
	return enc.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	pad []byte
}

func (e *encoder) node(n *Node, depth int) error {
	if n.IsScalar() {
		return writeScalar(e.w, n.Value)
	}
	open, closing := byte('['), byte(']')
	if n.Kind == KindObject {
		open, closing = '{', '}'
	}
	e.w.WriteByte(open)
	if len(n.Children) == 0 {
		return e.w.WriteByte(closing)
	}
	for i, child := range n.Children {
		if i > 0 {
			e.w.WriteByte(',')
		}
		e.newline(depth + 1)
		if n.Kind == KindObject {
			if err := writeScalar(e.w, child.Key); err != nil {
				return err
			}
			e.w.WriteString(": ")
		}
		if err := e.node(child, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	return e.w.WriteByte(closing)
}

func (e *encoder) newline(depth int) {
	e.w.WriteByte('\n')
	width := depth * len(Indent)
	for len(e.pad) < width {
		e.pad = append(e.pad, Indent...)
	}
	e.w.Write(e.pad[:width])
}

func writeScalar(w io.Writer, value any) error {
	var scratch bytes.Buffer
	enc := json.NewEncoder(&scratch)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	_, err := w.Write(bytes.TrimRight(scratch.Bytes(), "\n"))
	return err
}
