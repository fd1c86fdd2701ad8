package handlers

import (
	"plantshop/internal/middleware"
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes. requireAuth guards /me.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", requireAuth, h.HandleMe)
	authRoutes.Put("/me/address", requireAuth, h.HandleUpdateAddress)
}

// RegisterRequest represents the request body for sign-up.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Country   string `json:"country" validate:"max=100"`
	Address   string `json:"address" validate:"max=500"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
		Address:   req.Address,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleMe returns the account behind the bearer token.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required"))
	}
	user, err := h.authService.GetUser(c.UserContext(), identity.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// AddressRequest is the body of an address change. Missing fields clear the stored value.
type AddressRequest struct {
	Address string `json:"address" validate:"max=500"`
	Country string `json:"country" validate:"max=100"`
}

// HandleUpdateAddress stores the caller's delivery address.
func (h *AuthHandler) HandleUpdateAddress(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required"))
	}
	var req AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}
	user, err := h.authService.UpdateAddress(c.UserContext(), identity.UserID, req.Address, req.Country)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Address updated",
		"user":    user,
	})
}
