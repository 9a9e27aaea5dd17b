// Package editor owns live mind-map trees. An Editor applies mutations to
// one tree under a lock, enforces the rules the pure tree engine leaves to
// its caller (single active node, root protection, progress bounds) and
// hands every new version to a Syncer for background persistence.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/reflectai/reflectai/internal/metrics"
	"github.com/reflectai/reflectai/internal/mindmap"
)

// DefaultChildLabel is used when a child is added without a label.
const DefaultChildLabel = "New node"

var (
	ErrRootNotDeletable = errors.New("editor: the root node cannot be deleted")
	ErrReadOnly         = errors.New("editor: tree is read-only")
	ErrInvalidStatus    = errors.New("editor: invalid status")
	ErrInvalidIcon      = errors.New("editor: invalid icon")
	ErrProgressRange    = errors.New("editor: progress must be between 0 and 100")
	ErrProgressInactive = errors.New("editor: progress can only be set on the active node")
	ErrInvalidTree      = errors.New("editor: invalid tree")

	errSaverRequired = errors.New("editor: saver is required")
)

// Options configures an Editor.
type Options struct {
	OwnerID    string
	CategoryID string
	Title      string
	Root       *mindmap.Node
	ReadOnly   bool
	Syncer     *Syncer // nil keeps changes in memory only
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	NewID      func() (string, error)
}

// Editor is the mutable handle on one tree.
type Editor struct {
	ownerID    string
	categoryID string
	syncer     *Syncer
	log        *zap.Logger
	metrics    *metrics.Metrics
	newID      func() (string, error)

	mu       sync.Mutex
	root     *mindmap.Node
	title    string
	readOnly bool
}

// New creates an Editor around an already loaded tree.
func New(opts Options) (*Editor, error) {
	if opts.Root == nil {
		return nil, fmt.Errorf("editor: root is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = mindmap.NewID
	}
	return &Editor{
		ownerID:    opts.OwnerID,
		categoryID: opts.CategoryID,
		syncer:     opts.Syncer,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		newID:      opts.NewID,
		root:       opts.Root.Normalize(),
		title:      opts.Title,
		readOnly:   opts.ReadOnly,
	}, nil
}

// CategoryID returns the key the tree is stored under.
func (e *Editor) CategoryID() string {
	return e.categoryID
}

// Tree returns the current tree. Callers must not modify it.
func (e *Editor) Tree() *mindmap.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Title returns the tree title.
func (e *Editor) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

// Highlight derives the current node and its path from the live tree.
func (e *Editor) Highlight() mindmap.Highlight {
	return mindmap.ResolveHighlight(e.Tree())
}

// ReadOnly reports whether mutations are disabled.
func (e *Editor) ReadOnly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readOnly
}

// SetReadOnly switches presentation mode on or off.
func (e *Editor) SetReadOnly(ro bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = ro
}

// SaveState reports whether a save is in flight and the last save error.
func (e *Editor) SaveState() (saving bool, lastErr error) {
	if e.syncer == nil {
		return false, nil
	}
	return e.syncer.Pending(), e.syncer.LastError()
}

// Syncer returns the editor's syncer, or nil.
func (e *Editor) Syncer() *Syncer {
	return e.syncer
}

// apply runs fn against the current tree. A result pointer-equal to the
// input means nothing changed and nothing is persisted.
func (e *Editor) apply(op string, fn func(root *mindmap.Node) (*mindmap.Node, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	next, err := fn(e.root)
	if err != nil {
		return err
	}
	if next == e.root {
		return nil
	}
	e.root = next
	e.metrics.CountMutation(op)
	e.log.Debug("tree mutated",
		zap.String("op", op),
		zap.String("owner", e.ownerID),
		zap.String("category", e.categoryID))
	if e.syncer != nil {
		e.syncer.Enqueue(Snapshot{Root: next, Title: e.title})
	}
	return nil
}

// Change lists node fields to update. Nil fields are left untouched.
type Change struct {
	Label       *string
	Description *string
	Icon        *mindmap.Icon // empty clears the icon
	Status      *mindmap.Status
	Progress    *int
}

func (ch Change) validate() error {
	if ch.Icon != nil && *ch.Icon != "" && !mindmap.ValidIcon(string(*ch.Icon)) {
		return fmt.Errorf("%w: %q", ErrInvalidIcon, *ch.Icon)
	}
	if ch.Status != nil && !mindmap.ValidStatus(string(*ch.Status)) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *ch.Status)
	}
	if ch.Progress != nil && (*ch.Progress < 0 || *ch.Progress > 100) {
		return ErrProgressRange
	}
	return nil
}

// Update applies every field of ch to one node as a single mutation: either
// all fields land or none do. Status is applied before progress, so one
// change can activate a node and set its progress. A missing node is a
// no-op.
func (e *Editor) Update(id string, ch Change) error {
	return e.update("update", id, ch)
}

func (e *Editor) update(op, id string, ch Change) error {
	if err := ch.validate(); err != nil {
		return err
	}
	return e.apply(op, func(root *mindmap.Node) (*mindmap.Node, error) {
		n := mindmap.Find(root, id)
		if n == nil {
			return root, nil
		}
		status := n.Status
		if ch.Status != nil {
			status = *ch.Status
		}
		if ch.Progress != nil && status != mindmap.StatusActive {
			return nil, ErrProgressInactive
		}
		if status == mindmap.StatusActive {
			root = demoteActive(root, id)
		}
		return mindmap.UpdateNode(root, id, func(n mindmap.Node) mindmap.Node {
			if ch.Label != nil {
				n.Label = *ch.Label
			}
			if ch.Description != nil {
				n.Description = *ch.Description
			}
			if ch.Icon != nil {
				n.Icon = *ch.Icon
			}
			n.Status = status
			if ch.Progress != nil {
				n.Progress = *ch.Progress
			}
			return n
		}), nil
	})
}

// demoteActive sets every active node except keep back to pending.
func demoteActive(root *mindmap.Node, keep string) *mindmap.Node {
	for _, other := range mindmap.ActiveIDs(root) {
		if other == keep {
			continue
		}
		root = mindmap.UpdateNode(root, other, func(n mindmap.Node) mindmap.Node {
			n.Status = mindmap.StatusPending
			return n
		})
	}
	return root
}

// Rename sets the label of a node. Empty labels are allowed.
func (e *Editor) Rename(id, label string) error {
	return e.update("rename", id, Change{Label: &label})
}

// Describe sets the description of a node.
func (e *Editor) Describe(id, description string) error {
	return e.update("describe", id, Change{Description: &description})
}

// SetIcon sets a node icon. An empty icon clears it.
func (e *Editor) SetIcon(id string, icon mindmap.Icon) error {
	return e.update("set_icon", id, Change{Icon: &icon})
}

// SetStatus changes a node status. Making a node active demotes any other
// active node to pending so the tree keeps a single current node. Progress
// is retained when a node leaves the active state.
func (e *Editor) SetStatus(id string, status mindmap.Status) error {
	return e.update("set_status", id, Change{Status: &status})
}

// SetProgress sets the progress of the active node.
func (e *Editor) SetProgress(id string, progress int) error {
	return e.update("set_progress", id, Change{Progress: &progress})
}

// AddChild appends a new pending node under parentID and returns it. It
// returns nil without error when the parent does not exist.
func (e *Editor) AddChild(parentID, label string, kind mindmap.Kind) (*mindmap.Node, error) {
	if strings.TrimSpace(label) == "" {
		label = DefaultChildLabel
	}
	var added *mindmap.Node
	err := e.apply("add_child", func(root *mindmap.Node) (*mindmap.Node, error) {
		if mindmap.Find(root, parentID) == nil {
			return root, nil
		}
		id, err := e.uniqueID(root)
		if err != nil {
			return nil, err
		}
		added = mindmap.NewChild(id, label, kind)
		return mindmap.AddChild(root, parentID, added), nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (e *Editor) uniqueID(root *mindmap.Node) (string, error) {
	for range 8 {
		id, err := e.newID()
		if err != nil {
			return "", err
		}
		if mindmap.Find(root, id) == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("editor: could not allocate a unique node ID")
}

// Delete removes a node and its subtree. The root is protected.
func (e *Editor) Delete(id string) error {
	return e.apply("delete", func(root *mindmap.Node) (*mindmap.Node, error) {
		n := mindmap.Find(root, id)
		if n == nil {
			return root, nil
		}
		if n == root || n.IsRoot() {
			return nil, ErrRootNotDeletable
		}
		return mindmap.DeleteNode(root, id), nil
	})
}

// Replace swaps in a whole new tree, normalized, along with its title. The
// root must have kind root and node IDs must be present and unique. When
// several nodes are active only the first in depth-first order stays
// active.
func (e *Editor) Replace(root *mindmap.Node, title string) error {
	if root == nil {
		return fmt.Errorf("%w: root is required", ErrInvalidTree)
	}
	root = root.Normalize()
	if err := checkTree(root); err != nil {
		return err
	}
	if active := mindmap.ActiveIDs(root); len(active) > 1 {
		root = demoteActive(root, active[0])
	}
	return e.apply("replace", func(*mindmap.Node) (*mindmap.Node, error) {
		e.title = title
		return root, nil
	})
}

func checkTree(root *mindmap.Node) error {
	if root.Kind != mindmap.KindRoot {
		return fmt.Errorf("%w: root kind is %q, want %q", ErrInvalidTree, root.Kind, mindmap.KindRoot)
	}
	seen := make(map[string]struct{})
	var err error
	mindmap.Walk(root, func(n *mindmap.Node, _ int) bool {
		if n.ID == "" {
			err = fmt.Errorf("%w: node %q has no id", ErrInvalidTree, n.Label)
			return false
		}
		if _, dup := seen[n.ID]; dup {
			err = fmt.Errorf("%w: duplicate node id %q", ErrInvalidTree, n.ID)
			return false
		}
		seen[n.ID] = struct{}{}
		return true
	})
	return err
}

// Close flushes pending saves and stops the syncer.
func (e *Editor) Close(ctx context.Context) error {
	if e.syncer == nil {
		return nil
	}
	return e.syncer.Close(ctx)
}
