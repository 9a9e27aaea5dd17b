// Package treestore persists mind-map trees, one JSON blob per
// (owner, category), and adapts blobs to and from normalized trees.
package treestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/reflectai/reflectai/internal/mindmap"
	"github.com/reflectai/reflectai/internal/models"
)

// Uncategorized addresses the owner's newest tree without a category. Every
// detached tree also has its own key, see DetachedKey.
const Uncategorized = ""

// detachedPrefix starts the key of one specific uncategorized tree.
const detachedPrefix = "uncategorized-"

// DefaultTitle is used when a tree is saved without a title.
const DefaultTitle = "My plan"

// ErrNotFound is returned by GetTree when nothing is stored yet.
var ErrNotFound = errors.New("treestore: not found")

// Record is a stored tree blob.
type Record struct {
	Title string
	Data  string
}

// DetachedKey returns the key addressing the uncategorized tree stored in
// row id.
func DetachedKey(id uint) string {
	return detachedPrefix + strconv.FormatUint(uint64(id), 10)
}

// IsDetached reports whether key addresses one specific uncategorized tree.
func IsDetached(key string) bool {
	_, ok := parseDetached(key)
	return ok
}

func parseDetached(key string) (uint, bool) {
	rest, ok := strings.CutPrefix(key, detachedPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Store reads and writes tree blobs through GORM.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a Store. A nil logger discards the warnings about stored
// blobs that had to be replaced.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("treestore: db is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}, nil
}

// scope narrows a query to one tree. Uncategorized picks the most recently
// updated detached tree; a detached key picks exactly one row.
func scope(q *gorm.DB, ownerID, categoryID string) *gorm.DB {
	q = q.Where("owner_id = ?", ownerID)
	if id, ok := parseDetached(categoryID); ok {
		return q.Where("category_id IS NULL AND id = ?", id)
	}
	if categoryID == Uncategorized {
		return q.Where("category_id IS NULL").Order("updated_at DESC, id DESC")
	}
	return q.Where("category_id = ?", categoryID)
}

// LatestDetached returns the key of the owner's most recently updated
// uncategorized tree, or Uncategorized when there is none.
func (s *Store) LatestDetached(ctx context.Context, ownerID string) (string, error) {
	var mm models.MindMap
	err := scope(s.db.WithContext(ctx), ownerID, Uncategorized).Select("id").First(&mm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Uncategorized, nil
	}
	if err != nil {
		return "", fmt.Errorf("treestore: latest detached for %s: %w", ownerID, err)
	}
	return DetachedKey(mm.ID), nil
}

// GetTree returns the stored blob for the owner and category, or
// ErrNotFound when none has been saved.
func (s *Store) GetTree(ctx context.Context, ownerID, categoryID string) (*Record, error) {
	var mm models.MindMap
	err := scope(s.db.WithContext(ctx), ownerID, categoryID).First(&mm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("treestore: get %s/%s: %w", ownerID, categoryID, err)
	}
	return &Record{Title: mm.Title, Data: string(mm.Data)}, nil
}

// PutTree overwrites the stored blob wholesale, creating the row on first
// write. There is no merge and no concurrency check: the last write wins.
func (s *Store) PutTree(ctx context.Context, ownerID, categoryID, title, data string) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("treestore: owner is required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mm models.MindMap
		err := scope(tx, ownerID, categoryID).First(&mm).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if IsDetached(categoryID) {
				return ErrNotFound
			}
			mm = models.MindMap{OwnerID: ownerID, Title: title, Data: datatypes.JSON(data)}
			if categoryID != Uncategorized {
				cat := categoryID
				mm.CategoryID = &cat
			}
			return tx.Create(&mm).Error
		case err != nil:
			return err
		}
		return tx.Model(&mm).Updates(map[string]interface{}{
			"title": title,
			"data":  datatypes.JSON(data),
		}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("treestore: put %s/%s: %w", ownerID, categoryID, err)
	}
	return true, nil
}

// Load returns the normalized tree for the owner and category together with
// its title. When nothing is stored yet it returns the default starter tree.
// A blob that cannot be decoded is replaced by the starter tree too, and the
// next save overwrites it. A detached key that matches no row is
// ErrNotFound.
func (s *Store) Load(ctx context.Context, ownerID, categoryID string) (*mindmap.Node, string, error) {
	rec, err := s.GetTree(ctx, ownerID, categoryID)
	if errors.Is(err, ErrNotFound) && !IsDetached(categoryID) {
		return mindmap.DefaultTree(), DefaultTitle, nil
	}
	if err != nil {
		return nil, "", err
	}
	root := s.decode(ownerID, categoryID, rec.Data)
	title := rec.Title
	if title == "" {
		title = DefaultTitle
	}
	return root, title, nil
}

// Save serializes the normalized tree and overwrites the stored blob.
func (s *Store) Save(ctx context.Context, ownerID, categoryID string, root *mindmap.Node, title string) error {
	data, err := mindmap.Encode(root)
	if err != nil {
		return fmt.Errorf("treestore: save %s/%s: %w", ownerID, categoryID, err)
	}
	if title == "" {
		title = DefaultTitle
	}
	_, err = s.PutTree(ctx, ownerID, categoryID, title, string(data))
	return err
}

// decode parses a stored blob, falling back to the starter tree when the
// blob is not a JSON object.
func (s *Store) decode(ownerID, key, data string) *mindmap.Node {
	root, err := mindmap.Decode([]byte(data))
	if err != nil {
		s.log.Warn("stored tree unreadable, using starter tree",
			zap.String("owner", ownerID),
			zap.String("category", key),
			zap.Error(err))
		return mindmap.DefaultTree()
	}
	return root
}

// Entry is one stored tree in an owner's listing. Key addresses the tree in
// Load and Save: the category ID, or a DetachedKey for uncategorized trees.
type Entry struct {
	Key        string
	CategoryID string
	Title      string
	Root       *mindmap.Node
}

// ListTrees returns every tree stored for the owner, decoded and
// normalized. Unreadable blobs are listed with the starter tree.
func (s *Store) ListTrees(ctx context.Context, ownerID string) ([]Entry, error) {
	var rows []models.MindMap
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("treestore: list %s: %w", ownerID, err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{Key: DetachedKey(r.ID), Title: r.Title}
		if r.CategoryID != nil {
			e.CategoryID = *r.CategoryID
			e.Key = e.CategoryID
		}
		e.Root = s.decode(ownerID, e.Key, string(r.Data))
		entries = append(entries, e)
	}
	return entries, nil
}
