package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node by child indexes from the root. The empty path is
// the root itself.
type Path []int

// Child returns a new path extended by index.
func (p Path) Child(index int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = index
	return out
}

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, index := range p {
		parts[i] = strconv.Itoa(index)
	}
	return "/" + strings.Join(parts, "/")
}

// At resolves path relative to n.
func (n *Node) At(path Path) (*Node, error) {
	current := n
	for depth, index := range path {
		if current == nil {
			return nil, fmt.Errorf("tree: nil node at %s", path[:depth])
		}
		if index < 0 || index >= len(current.Children) {
			return nil, fmt.Errorf("tree: index %d out of range at %s", index, path[:depth])
		}
		current = current.Children[index]
	}
	if current == nil {
		return nil, fmt.Errorf("tree: nil node at %s", path)
	}
	return current, nil
}

// Walk visits every node depth-first in document order. Returning false
// from fn skips the node's children.
func Walk(n *Node, fn func(path Path, node *Node) bool) {
	walk(n, Path{}, fn)
}

func walk(n *Node, at Path, fn func(Path, *Node) bool) {
	if n == nil || fn == nil {
		return
	}
	if !fn(at, n) {
		return
	}
	for i, child := range n.Children {
		walk(child, at.Child(i), fn)
	}
}
