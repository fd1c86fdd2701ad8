package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a plant in the catalog. Prices are in minor currency units.
// Name and slug are unique among live rows only, so a soft-deleted product frees its name.
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"uniqueIndex:idx_products_live_name,where:deleted_at IS NULL;type:varchar(200);not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex:idx_products_live_slug,where:deleted_at IS NULL;type:varchar(220);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	SKU         string         `json:"sku,omitempty" gorm:"type:varchar(64)"`
	Price       int64          `json:"price" gorm:"not null"`
	Stock       int            `json:"stock" gorm:"not null;check:stock >= 0"`
	Discount    int            `json:"discount" gorm:"not null"`
	CoverImage  string         `json:"cover_image,omitempty" gorm:"type:varchar(500)"`
	IsFeatured  bool           `json:"is_featured" gorm:"not null"`
	CategoryID  *uint          `json:"category_id,omitempty" gorm:"index"`
	Category    *Category      `json:"category,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// UnitPrice is the price after the percentage discount, rounded down.
func (p *Product) UnitPrice() int64 {
	discount := p.Discount
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}
	return p.Price * int64(100-discount) / 100
}
