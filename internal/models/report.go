package models

import "time"

// Report is a generated progress report covering one period.
type Report struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	OwnerID     string    `gorm:"size:64;not null;index"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`
	Body        string    `gorm:"type:text"`
	Provider    string    `gorm:"size:32"`
	CreatedAt   time.Time
}
