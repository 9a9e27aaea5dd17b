// Package render turns a tree plus its highlight state into display models:
// a View tree for HTML templates and JSON, and an indented text outline for
// the terminal.
package render

import (
	"github.com/reflectai/reflectai/internal/mindmap"
)

// View is a display-ready node. Current marks the in-progress node and
// OnPath marks every node from the root down to it.
type View struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Kind        string `json:"kind"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Progress    int    `json:"progress,omitempty"`
	Depth       int    `json:"depth"`
	Current     bool   `json:"current,omitempty"`
	OnPath      bool   `json:"onPath,omitempty"`
	Children    []View `json:"children,omitempty"`
}

// ShowProgress reports whether a progress value should be displayed.
// Progress is retained on inactive nodes but only shown while active.
func (v View) ShowProgress() bool {
	return v.Status == string(mindmap.StatusActive)
}

// Build converts root into a View tree annotated with hl.
func Build(root *mindmap.Node, hl mindmap.Highlight) View {
	if root == nil {
		return View{}
	}
	return build(root, hl, 0)
}

func build(n *mindmap.Node, hl mindmap.Highlight, depth int) View {
	v := View{
		ID:          n.ID,
		Label:       n.Label,
		Kind:        string(n.Kind),
		Icon:        string(n.Icon),
		Description: n.Description,
		Status:      string(n.EffectiveStatus()),
		Progress:    n.Progress,
		Depth:       depth,
		Current:     hl.IsCurrent(n.ID),
		OnPath:      hl.OnPath(n.ID),
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		v.Children = append(v.Children, build(c, hl, depth+1))
	}
	return v
}
