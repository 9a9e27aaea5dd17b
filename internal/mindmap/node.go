// Package mindmap provides the mind-map node model and the pure tree
// operations used by the editor: lookup, path finding, update, insert,
// cascading delete and active-path highlighting.
package mindmap

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Kind is a rendering hint for a node. Only KindRoot affects mutation
// legality: the root cannot be deleted.
type Kind string

const (
	KindRoot          Kind = "root"
	KindPrimaryTarget Kind = "primary-target"
	KindPrimary       Kind = "primary"
	KindLeaf          Kind = "leaf"
)

// Status is the lifecycle state of a node.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Icon is a symbolic reference to one of a closed set of icon names.
type Icon string

const (
	IconUser      Icon = "User"
	IconTarget    Icon = "Target"
	IconLayers    Icon = "Layers"
	IconBookOpen  Icon = "BookOpen"
	IconLightbulb Icon = "Lightbulb"
	IconZap       Icon = "Zap"
	IconStar      Icon = "Star"
)

// Icons lists every accepted icon name in display order.
var Icons = []Icon{IconUser, IconTarget, IconLayers, IconBookOpen, IconLightbulb, IconZap, IconStar}

// Statuses lists every node status.
var Statuses = []Status{StatusPending, StatusActive, StatusCompleted, StatusAbandoned}

// Kinds lists every node kind.
var Kinds = []Kind{KindRoot, KindPrimaryTarget, KindPrimary, KindLeaf}

// Node is one entry of a mind map. Nodes are treated as immutable once they
// are part of a tree: every operation in this package returns new nodes
// along the modified path and shares the rest.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Kind        Kind    `json:"kind"`
	Icon        Icon    `json:"icon,omitempty"`
	Description string  `json:"description,omitempty"`
	Status      Status  `json:"status,omitempty"`
	Progress    int     `json:"progress,omitempty"`
	Children    []*Node `json:"children,omitempty"`
}

// IsRoot reports whether n is the tree root.
func (n *Node) IsRoot() bool {
	return n != nil && n.Kind == KindRoot
}

// IsActive reports whether n is the current in-progress node.
func (n *Node) IsActive() bool {
	return n != nil && n.Status == StatusActive
}

// EffectiveStatus returns the node status, treating an empty status as pending.
func (n *Node) EffectiveStatus() Status {
	if n.Status == "" {
		return StatusPending
	}
	return n.Status
}

// ValidIcon reports whether s names an icon in the closed set.
func ValidIcon(s string) bool {
	for _, i := range Icons {
		if string(i) == s {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

// ValidKind reports whether s is a known kind.
func ValidKind(s string) bool {
	for _, k := range Kinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// NewID creates a fresh node ID in n-xxxxxxxxxx format (10 hex chars).
func NewID() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("mindmap: generate ID: %w", err)
	}
	return "n-" + hex.EncodeToString(b), nil
}

// NewChild builds a node ready for AddChild: kind leaf, status pending and
// no children unless the caller overrides kind.
func NewChild(id, label string, kind Kind) *Node {
	if kind == "" || kind == KindRoot {
		kind = KindLeaf
	}
	return &Node{
		ID:     id,
		Label:  label,
		Kind:   kind,
		Status: StatusPending,
	}
}

// DefaultTree is the starter tree handed out the first time an owner opens a
// category that has no persisted data.
func DefaultTree() *Node {
	return &Node{
		ID:     "root",
		Label:  "Me",
		Kind:   KindRoot,
		Icon:   IconUser,
		Status: StatusPending,
		Children: []*Node{
			{
				ID:          "goal-1",
				Label:       "Long-term goal",
				Kind:        KindPrimaryTarget,
				Icon:        IconTarget,
				Description: "Where you want to be a year from now.",
				Status:      StatusPending,
			},
			{
				ID:          "focus-1",
				Label:       "Current focus",
				Kind:        KindPrimary,
				Icon:        IconLayers,
				Description: "The area you are working on this month.",
				Status:      StatusPending,
			},
		},
	}
}
