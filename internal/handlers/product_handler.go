package handlers

import (
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog and its admin operations.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.HandleListProducts)
	router.Get("/products/:id", h.HandleGetProduct)
	router.Get("/search", h.HandleSearch)
}

// RegisterAdminRoutes registers catalog management and stock reporting.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Post("/products", h.HandleCreateProduct)
	router.Put("/products/:id", h.HandleUpdateProduct)
	router.Delete("/products/:id", h.HandleDeleteProduct)
	router.Get("/low-stock", h.HandleLowStock)
	router.Get("/low-stock/count", h.HandleLowStockCount)
}

// ProductRequest is the body of create and update calls.
type ProductRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
	SKU         string `json:"sku" validate:"max=64"`
	Price       int64  `json:"price" validate:"min=0"`
	Stock       int    `json:"stock" validate:"min=0"`
	Discount    int    `json:"discount" validate:"min=0,max=100"`
	CoverImage  string `json:"cover_image" validate:"max=500"`
	IsFeatured  bool   `json:"is_featured"`
	CategoryID  *uint  `json:"category_id"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		SKU:         r.SKU,
		Price:       r.Price,
		Stock:       r.Stock,
		Discount:    r.Discount,
		CoverImage:  r.CoverImage,
		IsFeatured:  r.IsFeatured,
		CategoryID:  r.CategoryID,
	}
}

func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found"))
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleSearch serves GET /search?q=&limit=.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	result, err := h.service.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}
	product, err := h.service.CreateProduct(c.UserContext(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found"))
	}
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}
	product, err := h.service.UpdateProduct(c.UserContext(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found"))
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) HandleLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleLowStockCount(c *fiber.Ctx) error {
	count, err := h.service.CountLowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
