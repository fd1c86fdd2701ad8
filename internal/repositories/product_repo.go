package repositories

import (
	"context"
	"errors"

	"plantshop/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientStock is returned by DecrementStock when the guarded update matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrStatusChanged is returned when an order's status moved underneath a compare-and-set update.
var ErrStatusChanged = errors.New("order status changed concurrently")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, limit int) ([]models.Product, int64, error)
	LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	IDsInCategory(ctx context.Context, categoryID uint) ([]uint, error)
	// DecrementStock subtracts qty only when at least qty units remain.
	DecrementStock(ctx context.Context, id uint, qty int) error
	// IncrementStock adds qty back; it reports false when the product no longer exists.
	IncrementStock(ctx context.Context, id uint, qty int) (bool, error)
	WithTx(tx *gorm.DB) ProductRepository
}
