package tree

// MergeLayers composes documents ordered from strongest to weakest. Object
// members present in a stronger layer win, members missing from it are
// filled from weaker layers and appended after the stronger layer's members.
// Anything other than two objects is taken whole from the stronger layer.
// Nil layers are skipped and the inputs are never mutated.
func MergeLayers(layers ...*Node) *Node {
	var merged *Node
	for i := len(layers) - 1; i >= 0; i-- {
		merged = mergeNode(layers[i], merged)
	}
	return merged
}

func mergeNode(strong, weak *Node) *Node {
	if strong == nil {
		return weak.Clone()
	}
	if weak == nil || strong.Kind != KindObject || weak.Kind != KindObject {
		return strong.Clone()
	}

	out := &Node{Kind: KindObject, Key: strong.Key, Children: make([]*Node, 0, len(strong.Children))}
	seen := make(map[string]bool, len(strong.Children))
	for _, child := range strong.Children {
		seen[child.Key] = true
		if fallback, ok := weak.Child(child.Key); ok {
			out.Children = append(out.Children, mergeNode(child, fallback))
			continue
		}
		out.Children = append(out.Children, child.Clone())
	}
	for _, child := range weak.Children {
		if !seen[child.Key] {
			out.Children = append(out.Children, child.Clone())
		}
	}
	return out
}
