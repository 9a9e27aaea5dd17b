// Package report builds weekly progress reports from an owner's mind maps,
// optionally enriched with an AI-written summary, and persists them.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/mindmap"
	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/treestore"
)

// Period is the span a weekly report covers.
const Period = 7 * 24 * time.Hour

// UncategorizedName labels trees whose category was deleted.
const UncategorizedName = "Uncategorized"

// StatusCounts tallies nodes by status.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Abandoned int `json:"abandoned"`
}

// Total returns the number of counted nodes.
func (c StatusCounts) Total() int {
	return c.Pending + c.Active + c.Completed + c.Abandoned
}

// TreeSummary is the reportable state of one tree.
type TreeSummary struct {
	CategoryID   string       `json:"categoryId"`
	CategoryName string       `json:"category"`
	Title        string       `json:"title"`
	Counts       StatusCounts `json:"counts"`
	CurrentPath  []string     `json:"currentPath,omitempty"` // labels, root first
	Progress     int          `json:"progress"`              // of the current node
	Completed    []string     `json:"completed,omitempty"`   // labels of completed nodes
}

// Snapshot is the raw material of a report.
type Snapshot struct {
	OwnerID     string        `json:"owner"`
	PeriodStart time.Time     `json:"periodStart"`
	PeriodEnd   time.Time     `json:"periodEnd"`
	Trees       []TreeSummary `json:"trees"`
}

// Totals sums status counts across every tree.
func (s *Snapshot) Totals() StatusCounts {
	var t StatusCounts
	for _, tr := range s.Trees {
		t.Pending += tr.Counts.Pending
		t.Active += tr.Counts.Active
		t.Completed += tr.Counts.Completed
		t.Abandoned += tr.Counts.Abandoned
	}
	return t
}

// Summarize computes the reportable state of one tree. The root is not
// counted; it stands for the owner, not for a goal.
func Summarize(root *mindmap.Node) TreeSummary {
	var s TreeSummary
	mindmap.Walk(root, func(n *mindmap.Node, depth int) bool {
		if depth == 0 {
			return true
		}
		switch n.EffectiveStatus() {
		case mindmap.StatusActive:
			s.Counts.Active++
		case mindmap.StatusCompleted:
			s.Counts.Completed++
			s.Completed = append(s.Completed, n.Label)
		case mindmap.StatusAbandoned:
			s.Counts.Abandoned++
		default:
			s.Counts.Pending++
		}
		return true
	})

	hl := mindmap.ResolveHighlight(root)
	if hl.CurrentID == "" {
		return s
	}
	for _, id := range hl.Path(root) {
		n := mindmap.Find(root, id)
		s.CurrentPath = append(s.CurrentPath, n.Label)
		if id == hl.CurrentID {
			s.Progress = n.Progress
		}
	}
	return s
}

// Build snapshots every stored tree of the owner as of now.
func Build(ctx context.Context, db *gorm.DB, store *treestore.Store, ownerID string, now time.Time) (*Snapshot, error) {
	cats, err := category.List(db.WithContext(ctx), ownerID)
	if err != nil {
		return nil, fmt.Errorf("report: build: %w", err)
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	entries, err := store.ListTrees(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("report: build: %w", err)
	}

	snap := &Snapshot{
		OwnerID:     ownerID,
		PeriodStart: now.Add(-Period),
		PeriodEnd:   now,
	}
	for _, e := range entries {
		ts := Summarize(e.Root)
		ts.CategoryID = e.CategoryID
		ts.Title = e.Title
		ts.CategoryName = names[e.CategoryID]
		if e.CategoryID == treestore.Uncategorized {
			ts.CategoryName = UncategorizedName
		}
		snap.Trees = append(snap.Trees, ts)
	}
	sort.SliceStable(snap.Trees, func(i, j int) bool {
		return snap.Trees[i].CategoryName < snap.Trees[j].CategoryName
	})
	return snap, nil
}

// List returns the owner's stored reports, newest first. A limit <= 0
// returns all of them.
func List(db *gorm.DB, ownerID string, limit int) ([]models.Report, error) {
	q := db.Where("owner_id = ?", ownerID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var reports []models.Report
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("report: list: %w", err)
	}
	return reports, nil
}
