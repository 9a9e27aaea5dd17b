package mindmap

// Find returns the first node with the given ID in depth-first order, or nil.
func Find(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if n := Find(c, id); n != nil {
			return n
		}
	}
	return nil
}

// Walk visits every node depth-first, parents before children, children in
// order. Returning false from fn stops the walk.
func Walk(root *Node, fn func(n *Node, depth int) bool) {
	walk(root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	total := 0
	Walk(root, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// FindPath returns the IDs from the root to the first node with the given
// ID, inclusive at both ends. It returns nil when the ID is not in the tree.
func FindPath(root *Node, id string) []string {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return []string{root.ID}
	}
	for _, c := range root.Children {
		if sub := FindPath(c, id); sub != nil {
			return append([]string{root.ID}, sub...)
		}
	}
	return nil
}

// UpdateNode replaces the first node with the given ID by fn(copy of node).
// Ancestors on the path are shallow-copied; every other subtree is shared
// with the input. When the ID is absent the input root is returned as-is.
func UpdateNode(root *Node, id string, fn func(Node) Node) *Node {
	out, _ := update(root, id, fn)
	return out
}

func update(n *Node, id string, fn func(Node) Node) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.ID == id {
		updated := fn(*n)
		return &updated, true
	}
	for i, c := range n.Children {
		nc, ok := update(c, id, fn)
		if !ok {
			continue
		}
		cp := *n
		cp.Children = make([]*Node, len(n.Children))
		copy(cp.Children, n.Children)
		cp.Children[i] = nc
		return &cp, true
	}
	return n, false
}

// AddChild appends child to the children of the node with ID parentID.
// The input root is returned unchanged when the parent does not exist.
// Uniqueness of child.ID within the tree is the caller's responsibility.
func AddChild(root *Node, parentID string, child *Node) *Node {
	if child == nil {
		return root
	}
	return UpdateNode(root, parentID, func(p Node) Node {
		children := make([]*Node, len(p.Children), len(p.Children)+1)
		copy(children, p.Children)
		p.Children = append(children, child)
		return p
	})
}

// DeleteNode removes every node with the given ID, together with its
// subtree, at any depth. The root itself is never removed: protecting the
// root is the caller's job, and asking to delete it leaves the tree as-is.
func DeleteNode(root *Node, id string) *Node {
	out, _ := remove(root, id)
	return out
}

func remove(n *Node, id string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	changed := false
	kept := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.ID == id {
			changed = true
			continue
		}
		nc, ok := remove(c, id)
		if ok {
			changed = true
		}
		kept = append(kept, nc)
	}
	if !changed {
		return n, false
	}
	cp := *n
	cp.Children = kept
	return &cp, true
}

// Equal reports whether two trees have the same shape and field values.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Label != b.Label || a.Kind != b.Kind || a.Icon != b.Icon ||
		a.Description != b.Description || a.Status != b.Status || a.Progress != b.Progress {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
