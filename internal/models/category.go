// Package models defines the GORM models persisted by ReflectAI.
package models

import "time"

// Category is a named partition of an owner's data. Each (owner, category)
// pair addresses at most one mind map.
type Category struct {
	ID        string `gorm:"primaryKey;size:36"`
	OwnerID   string `gorm:"size:64;not null;index"`
	Name      string `gorm:"size:128;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
