package models

import (
	"time"

	"gorm.io/datatypes"
)

// MindMap stores one serialized tree. A nil CategoryID marks a tree whose
// category was deleted ("uncategorized").
type MindMap struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"`
	OwnerID    string         `gorm:"size:64;not null;uniqueIndex:idx_mind_map_owner_category"`
	CategoryID *string        `gorm:"size:36;uniqueIndex:idx_mind_map_owner_category"`
	Title      string         `gorm:"size:255"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
