package repositories

import (
	"context"

	"plantshop/internal/models"

	"gorm.io/gorm"
)

// OrderFilter narrows List. A zero value lists everything.
type OrderFilter struct {
	Status models.OrderStatus
	UserID uint
	Limit  int
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	// UpdateStatus moves the order from one status to another. It fails with
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error
	WithTx(tx *gorm.DB) OrderRepository
}
