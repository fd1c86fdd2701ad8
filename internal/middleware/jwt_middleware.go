package middleware

import (
	"strings"

	"plantshop/internal/models"
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "user_id"
	localUsername = "username"
	localRole     = "role"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Identity, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"error":   pkgerrors.CodeUnauthenticated,
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"error":   pkgerrors.CodeUnauthenticated,
			})
		}

		identity, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   pkgerrors.CodeUnauthenticated,
			})
		}

		c.Locals(localUserID, identity.UserID)
		c.Locals(localUsername, identity.Username)
		c.Locals(localRole, identity.Role)
		return c.Next()
	}
}

// AdminRequired rejects callers without the ADMIN role. It must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, ok := CurrentIdentity(c); !ok || !identity.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Administrator access required",
				"error":   pkgerrors.CodeForbidden,
			})
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(c *fiber.Ctx) (services.Identity, bool) {
	userID, ok := c.Locals(localUserID).(uint)
	if !ok || userID == 0 {
		return services.Identity{}, false
	}
	identity := services.Identity{UserID: userID, Role: models.RoleUser}
	if username, ok := c.Locals(localUsername).(string); ok {
		identity.Username = username
	}
	if role, ok := c.Locals(localRole).(models.Role); ok {
		identity.Role = role
	}
	return identity, true
}
