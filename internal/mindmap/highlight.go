package mindmap

// Highlight is the display state derived from a tree: the single current
// (active) node and the set of nodes on the path from the root to it.
type Highlight struct {
	CurrentID string
	PathIDs   map[string]struct{}
}

// OnPath reports whether the node lies on the root-to-current route.
func (h Highlight) OnPath(id string) bool {
	_, ok := h.PathIDs[id]
	return ok
}

// IsCurrent reports whether the node is the current node.
func (h Highlight) IsCurrent(id string) bool {
	return h.CurrentID != "" && h.CurrentID == id
}

// Path returns the path IDs in root-to-current order.
func (h Highlight) Path(root *Node) []string {
	if h.CurrentID == "" {
		return nil
	}
	return FindPath(root, h.CurrentID)
}

// ActiveID returns the ID of the first active node in depth-first order,
// or "" when no node is active.
func ActiveID(root *Node) string {
	id := ""
	Walk(root, func(n *Node, _ int) bool {
		if n.IsActive() {
			id = n.ID
			return false
		}
		return true
	})
	return id
}

// ActiveIDs returns every active node ID in depth-first order. A
// well-formed tree has at most one.
func ActiveIDs(root *Node) []string {
	var ids []string
	Walk(root, func(n *Node, _ int) bool {
		if n.IsActive() {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

// ResolveHighlight computes the highlight state from scratch. It keeps no
// state between calls and must be re-run after every tree change.
func ResolveHighlight(root *Node) Highlight {
	h := Highlight{PathIDs: map[string]struct{}{}}
	h.CurrentID = ActiveID(root)
	if h.CurrentID == "" {
		return h
	}
	for _, id := range FindPath(root, h.CurrentID) {
		h.PathIDs[id] = struct{}{}
	}
	return h
}
