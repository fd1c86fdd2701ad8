package models

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	StatusNew        OrderStatus = "NEW"
	StatusInProgress OrderStatus = "IN_PROGRESS"
	StatusReady      OrderStatus = "READY"
	StatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{StatusNew, StatusInProgress, StatusReady, StatusCancelled}

// OrderStatuses lists every valid status in board order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

// ParseOrderStatus trims and upper-cases raw before matching it against the enumeration.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range orderStatuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ReleasesReservation reports whether moving from s to next gives the reserved stock back.
// Only a cancellation straight from NEW does.
func (s OrderStatus) ReleasesReservation(next OrderStatus) bool {
	return s == StatusNew && next == StatusCancelled
}

// LineItem is the snapshot of a product captured when the order was placed.
type LineItem struct {
	ProductID uint   `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Discount  int    `json:"discount"`
	Quantity  int    `json:"quantity"`
}

func (li LineItem) Total() int64 {
	return li.Price * int64(li.Quantity)
}

// LineItems is stored as a JSON column on the order row.
type LineItems []LineItem

func (items LineItems) Total() int64 {
	var total int64
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// Order represents a customer order. Items is immutable once created.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index;not null"`
	User      *User       `json:"user,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	Items     LineItems   `json:"products" gorm:"column:items;type:text;serializer:json"`
	Total     int64       `json:"total" gorm:"not null"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
