// Package category provides the per-owner category lifecycle. Categories
// partition an owner's mind maps; every owner always keeps at least one.
package category

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reflectai/reflectai/internal/models"
	"gorm.io/gorm"
)

// DefaultName is the name of the category created for owners who have none.
const DefaultName = "General"

var (
	// ErrNotFound is returned when the category does not exist for the owner.
	ErrNotFound = errors.New("category: not found")
	// ErrLastCategory is returned when deleting the owner's only category.
	ErrLastCategory = errors.New("category: cannot delete the last category")
	// ErrNameRequired is returned for an empty or blank category name.
	ErrNameRequired = errors.New("category: name is required")
)

// List returns the owner's categories, oldest first.
func List(db *gorm.DB, ownerID string) ([]models.Category, error) {
	var cats []models.Category
	if err := db.Where("owner_id = ?", ownerID).Order("created_at ASC, id ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("category: list for %s: %w", ownerID, err)
	}
	return cats, nil
}

// Get retrieves one of the owner's categories.
func Get(db *gorm.DB, ownerID, id string) (*models.Category, error) {
	var c models.Category
	if err := db.Where("owner_id = ? AND id = ?", ownerID, id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("category: get %s: %w", id, err)
	}
	return &c, nil
}

// Create adds a category with a generated ID.
func Create(db *gorm.DB, ownerID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if ownerID == "" {
		return nil, fmt.Errorf("category: owner is required")
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	c := models.Category{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("category: create %q: %w", name, err)
	}
	return &c, nil
}

// Rename changes a category's display name.
func Rename(db *gorm.DB, ownerID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	result := db.Model(&models.Category{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Update("name", name)
	if result.Error != nil {
		return fmt.Errorf("category: rename %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a category. The category's mind map is kept and detached
// (its category reference becomes NULL, i.e. uncategorized). Deleting the
// owner's last category is rejected with ErrLastCategory.
func Delete(db *gorm.DB, ownerID, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, ownerID, id); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Category{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
			return fmt.Errorf("category: count for %s: %w", ownerID, err)
		}
		if count <= 1 {
			return ErrLastCategory
		}

		if err := tx.Model(&models.MindMap{}).
			Where("owner_id = ? AND category_id = ?", ownerID, id).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("category: detach mind map from %s: %w", id, err)
		}

		if err := tx.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&models.Category{}).Error; err != nil {
			return fmt.Errorf("category: delete %s: %w", id, err)
		}
		return nil
	})
}

// EnsureDefault returns the owner's categories, creating the default one
// first when the owner has none.
func EnsureDefault(db *gorm.DB, ownerID string) ([]models.Category, error) {
	cats, err := List(db, ownerID)
	if err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}
	c, err := Create(db, ownerID, DefaultName)
	if err != nil {
		return nil, err
	}
	return []models.Category{*c}, nil
}
