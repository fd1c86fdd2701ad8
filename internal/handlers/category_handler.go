package handlers

import (
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler serves catalog categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/categories", h.HandleListCategories)
}

func (h *CategoryHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Post("/categories", h.HandleCreateCategory)
	router.Put("/categories/:id", h.HandleUpdateCategory)
	router.Delete("/categories/:id", h.HandleDeleteCategory)
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *CategoryHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found"))
	}
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}
	category, err := h.service.UpdateCategory(c.UserContext(), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found"))
	}
	if err := h.service.DeleteCategory(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
