// Package mdast holds the document-tree helpers used at the host boundary.
//
// Nodes are plain maps decoded from the host's JSON payload. Keeping them
// untyped means fields this plugin does not understand survive a round trip
// unchanged; only "type" and "children" carry meaning here.
package mdast

// Node is one tree node: a mapping with a "type" field and, optionally, an
// ordered "children" sequence.
type Node = map[string]any

// Type returns the node's type tag, or "" if it has none.
func Type(n Node) string {
	t, _ := n["type"].(string)
	return t
}

// Children returns the child nodes of n. Entries that are not mappings are
// skipped; the returned maps alias the tree.
func Children(n Node) []Node {
	raw, ok := n["children"].([]any)
	if !ok {
		if typed, ok := n["children"].([]Node); ok {
			return typed
		}
		return nil
	}
	out := make([]Node, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// FindAllByType walks the tree depth-first in document order and returns
// every node whose type equals typ, at any nesting depth. The returned maps
// are handles into the tree, so callers can rewrite them in place.
func FindAllByType(root Node, typ string) []Node {
	var found []Node
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil {
			return
		}
		if Type(n) == typ {
			found = append(found, n)
		}
		for _, c := range Children(n) {
			walk(c)
		}
	}
	walk(root)
	return found
}

// Replace overwrites n's fields with those of with, keeping the identity of
// n so that parents referencing it observe the change.
func Replace(n Node, with Node) {
	for k := range n {
		delete(n, k)
	}
	for k, v := range with {
		n[k] = v
	}
}

// List converts a slice of nodes to the []any shape produced by JSON
// decoding, so rewritten subtrees look like the rest of the tree.
func List(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// Clone returns a deep copy of n. Nested maps and slices are copied; scalar
// values are shared.
func Clone(n Node) Node {
	if n == nil {
		return nil
	}
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []Node:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}
