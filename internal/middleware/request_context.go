package middleware

import (
	"plantshop/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestContext attaches the request id to the user context so service logs carry it.
// It must run after the requestid middleware.
func RequestContext(logg *logger.Logger) fiber.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
			ctx = logg.WithRequestID(ctx, rid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
