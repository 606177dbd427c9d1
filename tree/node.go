// Package tree holds the editable representation of a JSON document and the
// codec that converts it to and from JSON text.
//
// A document is an ordered, rooted tree of *Node values. Member order is
// significant and is preserved by every conversion in this package.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind tags the JSON construct a node represents.
type Kind int

const (
	// KindValue is a scalar array element or a scalar document root.
	KindValue Kind = iota
	// KindKeyValue is a scalar member of an object.
	KindKeyValue
	// KindObject is an object; its children are its members.
	KindObject
	// KindArray is an array; its children are its elements.
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindKeyValue:
		return "key_value"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrMalformed reports a tree that violates the node invariants.
var ErrMalformed = errors.New("tree: malformed node")

// Node is one JSON construct. Key is only meaningful when the parent is an
// object. Value is only populated for scalars and holds a string,
// json.Number, bool or nil (null). Children is only populated for objects
// and arrays.
type Node struct {
	Kind     Kind
	Key      string
	Value    any
	Children []*Node
}

// Object builds an object node from members built with Member.
func Object(members ...*Node) *Node {
	return &Node{Kind: KindObject, Children: compact(members)}
}

// Array builds an array node.
func Array(elements ...*Node) *Node {
	return &Node{Kind: KindArray, Children: compact(elements)}
}

// Scalar builds a scalar node. Go numbers are stored as json.Number.
func Scalar(value any) *Node {
	normalized, err := normalizeScalar(value)
	if err != nil {
		normalized = value
	}
	return &Node{Kind: KindValue, Value: normalized}
}

// Member attaches key to node so it can be placed under an object. Scalars
// become key/value pairs; containers keep their kind.
func Member(key string, node *Node) *Node {
	if node == nil {
		node = Scalar(nil)
	}
	out := node.Clone()
	out.Key = key
	if out.Kind == KindValue {
		out.Kind = KindKeyValue
	}
	return out
}

// IsScalar reports whether the node holds a value rather than children.
func (n *Node) IsScalar() bool {
	return n != nil && (n.Kind == KindValue || n.Kind == KindKeyValue)
}

// Len returns the number of children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Child returns the member of an object named key.
func (n *Node) Child(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	for _, child := range n.Children {
		if child != nil && child.Key == key {
			return child, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Key: n.Key, Value: n.Value}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// Validate checks the node invariants for the whole subtree rooted at n.
func Validate(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil root", ErrMalformed)
	}
	if n.Kind == KindKeyValue {
		return fmt.Errorf("%w: key/value pair cannot be a root", ErrMalformed)
	}
	return validate(n, Path{})
}

func validate(n *Node, at Path) error {
	if n == nil {
		return fmt.Errorf("%w: nil node at %s", ErrMalformed, at)
	}
	switch n.Kind {
	case KindValue, KindKeyValue:
		if len(n.Children) > 0 {
			return fmt.Errorf("%w: scalar with children at %s", ErrMalformed, at)
		}
		if _, err := normalizeScalar(n.Value); err != nil {
			return fmt.Errorf("%w: %v at %s", ErrMalformed, err, at)
		}
		return nil
	case KindObject, KindArray:
		if n.Value != nil {
			return fmt.Errorf("%w: %s with a value at %s", ErrMalformed, n.Kind, at)
		}
		for i, child := range n.Children {
			next := at.Child(i)
			if child == nil {
				return fmt.Errorf("%w: nil child at %s", ErrMalformed, next)
			}
			if n.Kind == KindObject && child.Kind == KindValue {
				return fmt.Errorf("%w: object member without key at %s", ErrMalformed, next)
			}
			if n.Kind == KindArray && child.Kind == KindKeyValue {
				return fmt.Errorf("%w: key/value pair inside array at %s", ErrMalformed, next)
			}
			if err := validate(child, next); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d at %s", ErrMalformed, int(n.Kind), at)
	}
}

// Equal reports whether a and b describe the same JSON value with the same
// member order. Numbers compare numerically, falling back to their text.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsScalar() != b.IsScalar() {
		return false
	}
	if a.IsScalar() {
		return a.Kind == b.Kind && a.Key == b.Key && scalarsEqual(a.Value, b.Value)
	}
	if a.Kind != b.Kind || a.Key != b.Key || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func scalarsEqual(a, b any) bool {
	an, aNum := a.(json.Number)
	bn, bNum := b.(json.Number)
	if aNum || bNum {
		if !aNum || !bNum {
			return false
		}
		af, errA := an.Float64()
		bf, errB := bn.Float64()
		if errA == nil && errB == nil && af == bf {
			return true
		}
		return an.String() == bn.String()
	}
	return a == b
}

// ToValue converts the tree into plain Go values: map[string]any, []any,
// string, bool, nil, int64 for integral numbers and float64 otherwise.
// Duplicate object keys resolve to the last member.
func ToValue(n *Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindObject:
		out := make(map[string]any, len(n.Children))
		for _, child := range n.Children {
			out[child.Key] = ToValue(child)
		}
		return out
	case KindArray:
		out := make([]any, 0, len(n.Children))
		for _, child := range n.Children {
			out = append(out, ToValue(child))
		}
		return out
	default:
		if number, ok := n.Value.(json.Number); ok {
			if i, err := number.Int64(); err == nil {
				return i
			}
			if f, err := number.Float64(); err == nil {
				return f
			}
			return number.String()
		}
		return n.Value
	}
}

// FromValue builds a tree from plain Go values. Map keys are sorted because
// Go maps carry no order.
func FromValue(value any) (*Node, error) {
	switch typed := value.(type) {
	case *Node:
		return typed.Clone(), nil
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		node := &Node{Kind: KindObject, Children: make([]*Node, 0, len(keys))}
		for _, key := range keys {
			child, err := FromValue(typed[key])
			if err != nil {
				return nil, fmt.Errorf("tree: member %q: %w", key, err)
			}
			node.Children = append(node.Children, Member(key, child))
		}
		return node, nil
	case []any:
		node := &Node{Kind: KindArray, Children: make([]*Node, 0, len(typed))}
		for i, element := range typed {
			child, err := FromValue(element)
			if err != nil {
				return nil, fmt.Errorf("tree: element %d: %w", i, err)
			}
			node.Children = append(node.Children, child)
		}
		return node, nil
	default:
		scalar, err := normalizeScalar(value)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindValue, Value: scalar}, nil
	}
}

func normalizeScalar(value any) (any, error) {
	switch typed := value.(type) {
	case nil, string, bool, json.Number:
		return typed, nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, fmt.Errorf("tree: unsupported number %v", typed)
		}
		return json.Number(strconv.FormatFloat(typed, 'g', -1, 64)), nil
	case float32:
		return normalizeScalar(float64(typed))
	case int:
		return json.Number(strconv.FormatInt(int64(typed), 10)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(typed), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(typed, 10)), nil
	case uint:
		return json.Number(strconv.FormatUint(uint64(typed), 10)), nil
	case uint32:
		return json.Number(strconv.FormatUint(uint64(typed), 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(typed, 10)), nil
	default:
		return nil, fmt.Errorf("tree: unsupported scalar type %T", value)
	}
}

func compact(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		if node != nil {
			out = append(out, node)
		}
	}
	return out
}
