package handlers

import (
	"plantshop/internal/middleware"
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers checkout and order history behind requireAuth.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	orderRoutes := router.Group("/orders", requireAuth)
	orderRoutes.Get("/", h.HandleListMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/", h.HandleCreateOrder)
}

// RegisterAdminRoutes registers the order board.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleListOrders)
	router.Patch("/orders/:id", h.HandleUpdateOrderStatus)
}

// OrderItemRequest accepts either productId or id for the product reference.
// A missing quantity means one unit.
type OrderItemRequest struct {
	ProductID *int64 `json:"productId"`
	ID        *int64 `json:"id"`
	Quantity  *int   `json:"quantity"`
}

func (r OrderItemRequest) toService() services.OrderItemRequest {
	item := services.OrderItemRequest{Quantity: 1}
	switch {
	case r.ProductID != nil:
		item.ProductID = *r.ProductID
	case r.ID != nil:
		item.ProductID = *r.ID
	}
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	return item
}

// CreateOrderRequest is the checkout body. "products" is accepted as an alias of "items".
type CreateOrderRequest struct {
	Items    []OrderItemRequest `json:"items"`
	Products []OrderItemRequest `json:"products"`
	Total    *int64             `json:"total" validate:"omitempty,min=0"`
}

func (r CreateOrderRequest) lines() []OrderItemRequest {
	if len(r.Items) > 0 {
		return r.Items
	}
	return r.Products
}

// UpdateStatusRequest is the body of a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleCreateOrder places an order for the authenticated caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required"))
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}
	lines := req.lines()
	if len(lines) == 0 {
		return respondError(c, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required"))
	}

	items := make([]services.OrderItemRequest, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.toService())
	}

	order, err := h.service.PlaceOrder(c.UserContext(), services.PlaceOrderCommand{
		UserID:        identity.UserID,
		Items:         items,
		DeclaredTotal: req.Total,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListMyOrders returns the caller's orders.
func (h *OrderHandler) HandleListMyOrders(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required"))
	}
	orders, err := h.service.ListOrdersForUser(c.UserContext(), identity.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one order if the caller owns it or is an admin.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required"))
	}
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found"))
	}
	order, err := h.service.GetOrder(c.UserContext(), id, identity.UserID, identity.IsAdmin())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleListOrders serves the admin board, optionally filtered by ?status=.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleUpdateOrderStatus moves an order on the board.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found"))
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
