package services

import (
	"context"
	"errors"
	"fmt"

	"plantshop/internal/cache"
	"plantshop/internal/config"
	"plantshop/internal/metrics"
	"plantshop/internal/models"
	"plantshop/internal/repositories"
	pkgerrors "plantshop/pkg/errors"
	"plantshop/pkg/logger"

	"gorm.io/gorm"
)

// TxRunner runs fn inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderNotifier is told about committed order changes. Errors are logged, never propagated.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
}

// OrderItemRequest is one requested cart line.
type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// PlaceOrderCommand is the validated checkout request.
type PlaceOrderCommand struct {
	UserID        uint
	Items         []OrderItemRequest
	DeclaredTotal *int64
}

// StockShortage describes the line that could not be reserved.
type StockShortage struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Remaining   int    `json:"remaining"`
}

// TotalMismatch is attached to TOTAL_MISMATCH errors.
type TotalMismatch struct {
	Declared int64 `json:"declared"`
	Computed int64 `json:"computed"`
}

type OrderServiceParams struct {
	Tx          TxRunner
	Products    repositories.ProductRepository
	Orders      repositories.OrderRepository
	Users       repositories.UserRepository
	Notifier    OrderNotifier
	Cache       cache.ProductCache
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
	TotalPolicy config.TotalPolicy
}

// OrderService places orders and moves them through the status board.
type OrderService struct {
	tx          TxRunner
	products    repositories.ProductRepository
	orders      repositories.OrderRepository
	users       repositories.UserRepository
	notifier    OrderNotifier
	cache       cache.ProductCache
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	totalPolicy config.TotalPolicy
}

func NewOrderService(p OrderServiceParams) *OrderService {
	s := &OrderService{
		tx:          p.Tx,
		products:    p.Products,
		orders:      p.Orders,
		users:       p.Users,
		notifier:    p.Notifier,
		cache:       p.Cache,
		metrics:     p.Metrics,
		logg:        p.Logger,
		totalPolicy: p.TotalPolicy,
	}
	if s.cache == nil {
		s.cache = cache.NopProductCache{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.totalPolicy == "" {
		s.totalPolicy = config.TotalRecompute
	}
	return s
}

type reservation struct {
	productID uint
	quantity  int
}

// PlaceOrder reserves stock for every requested line and persists a NEW order.
// Either everything commits or nothing changes.
func (s *OrderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*models.Order, error) {
	order, err := s.placeOrder(ctx, cmd)
	if err != nil {
		s.metrics.IncPlacementFailure(string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncPlaced()
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, cmd PlaceOrderCommand) (*models.Order, error) {
	if cmd.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required")
	}
	ctx = s.logg.WithUserID(ctx, cmd.UserID)

	user, err := s.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeUserNotFound, "user %d not found", cmd.UserID)
		}
		s.logg.Error(ctx, "failed to resolve user", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "failed to resolve user")
	}

	lines := make([]reservation, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			continue
		}
		lines = append(lines, reservation{productID: uint(item.ProductID), quantity: item.Quantity})
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no valid items")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		items := make(models.LineItems, 0, len(lines))
		for _, line := range lines {
			product, err := products.GetByID(ctx, line.productID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return shortage(StockShortage{ProductID: line.productID, Requested: line.quantity})
				}
				return err
			}
			if product.Stock < line.quantity {
				return shortage(StockShortage{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   line.quantity,
					Remaining:   product.Stock,
				})
			}
			items = append(items, models.LineItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.UnitPrice(),
				Discount:  product.Discount,
				Quantity:  line.quantity,
			})
		}

		total, err := s.resolveTotal(ctx, items.Total(), cmd.DeclaredTotal)
		if err != nil {
			return err
		}

		order = &models.Order{
			UserID: user.ID,
			Items:  items,
			Total:  total,
			Status: models.StatusNew,
		}
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, repositories.ErrInsufficientStock) {
				remaining := 0
				if current, lookupErr := products.GetByID(ctx, item.ProductID); lookupErr == nil {
					remaining = current.Stock
				}
				return shortage(StockShortage{
					ProductID:   item.ProductID,
					ProductName: item.Name,
					Requested:   item.Quantity,
					Remaining:   remaining,
				})
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.transactionError(ctx, err, "failed to place order")
	}

	order.User = user
	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(ctx, "order placed")

	s.invalidate(ctx, order.Items)
	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, order); err != nil {
			s.metrics.IncNotificationFailure("order_placed")
			s.logg.Warn(ctx, "order placed notification failed", err)
		}
	}
	return order, nil
}

func (s *OrderService) resolveTotal(ctx context.Context, computed int64, declared *int64) (int64, error) {
	if declared == nil {
		return computed, nil
	}
	switch s.totalPolicy {
	case config.TotalTrust:
		return *declared, nil
	case config.TotalVerify:
		if *declared != computed {
			return 0, pkgerrors.Newf(pkgerrors.CodeTotalMismatch,
				"declared total %d does not match computed total %d", *declared, computed).
				WithDetails(TotalMismatch{Declared: *declared, Computed: computed})
		}
	default:
		if *declared != computed {
			ctx = s.logg.WithFields(ctx, map[string]any{"declared_total": *declared, "computed_total": computed})
			s.logg.Warn(ctx, "declared order total ignored", nil)
		}
	}
	return computed, nil
}

// UpdateOrderStatus moves an order to the requested status. Only NEW -> CANCELLED
// puts the reserved stock back.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, rawStatus string) (*models.Order, error) {
	ctx = s.logg.WithOrderID(ctx, id)

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(ctx, id, err)
	}

	next, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidStatus, "invalid status %q", rawStatus).
			WithDetails(map[string]any{"allowed": models.OrderStatuses()})
	}

	previous := order.Status
	if next == previous {
		return order, nil
	}
	if previous == models.StatusCancelled {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "order %d is cancelled and cannot be reopened", id)
	}

	restocked := 0
	var touched []uint
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).UpdateStatus(ctx, id, previous, next); err != nil {
			return err
		}
		if !previous.ReleasesReservation(next) {
			return nil
		}

		products := s.products.WithTx(tx)
		for _, item := range order.Items {
			ok, err := products.IncrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID), "restock skipped, product no longer exists", nil)
				continue
			}
			restocked += item.Quantity
			touched = append(touched, item.ProductID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrStatusChanged) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("order %d was updated concurrently, retry", id))
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeOrderNotFound, "order %d not found", id)
		}
		return nil, s.transactionError(ctx, err, "failed to update order status")
	}

	order.Status = next
	s.metrics.IncTransition(string(previous), string(next))
	s.metrics.AddRestocked(restocked)
	ctx = s.logg.WithFields(ctx, map[string]any{"from": previous, "to": next, "restocked": restocked})
	s.logg.Info(ctx, "order status updated")

	if len(touched) > 0 {
		if err := s.cache.Invalidate(ctx, touched...); err != nil {
			s.logg.Warn(ctx, "product cache invalidation failed", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.OrderStatusChanged(ctx, order, previous); err != nil {
			s.metrics.IncNotificationFailure("status_changed")
			s.logg.Warn(ctx, "status change notification failed", err)
		}
	}
	return order, nil
}

// GetOrder returns an order visible to the caller. Non-admins only see their own orders.
func (s *OrderService) GetOrder(ctx context.Context, id, callerID uint, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(ctx, id, err)
	}
	if !isAdmin && order.UserID != callerID {
		return nil, pkgerrors.Newf(pkgerrors.CodeOrderNotFound, "order %d not found", id)
	}
	return order, nil
}

// ListOrdersForUser returns the caller's orders, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.orders.List(ctx, repositories.OrderFilter{UserID: userID})
	if err != nil {
		s.logg.Error(ctx, "failed to list user orders", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return orders, nil
}

// ListOrders returns all orders, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, rawStatus string) ([]models.Order, error) {
	var filter repositories.OrderFilter
	if rawStatus != "" {
		status, err := models.ParseOrderStatus(rawStatus)
		if err != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeInvalidStatus, "invalid status %q", rawStatus)
		}
		filter.Status = status
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		s.logg.Error(ctx, "failed to list orders", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return orders, nil
}

func (s *OrderService) lookupError(ctx context.Context, id uint, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeOrderNotFound, "order %d not found", id)
	}
	s.logg.Error(ctx, "failed to load order", err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
}

// transactionError keeps typed errors raised inside the transaction and hides everything else.
func (s *OrderService) transactionError(ctx context.Context, err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	s.logg.Error(ctx, msg, err)
	return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, msg)
}

func (s *OrderService) invalidate(ctx context.Context, items models.LineItems) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logg.Warn(ctx, "product cache invalidation failed", err)
	}
}

func shortage(detail StockShortage) error {
	name := detail.ProductName
	if name == "" {
		name = fmt.Sprintf("product %d", detail.ProductID)
	}
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
		"insufficient stock for %s: requested %d, %d remaining", name, detail.Requested, detail.Remaining).
		WithDetails(detail)
}
