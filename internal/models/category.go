package models

import "time"

// Category groups products in the catalog.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(120);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
