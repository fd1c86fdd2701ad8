package server

import (
	"context"
	"errors"
	"time"

	"plantshop/internal/handlers"
	"plantshop/internal/middleware"
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"
	"plantshop/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Logger     *logger.Logger
	Auth       *services.AuthService
	Products   *services.ProductService
	Categories *services.CategoryService
	Orders     *services.OrderService
	Database   Pinger
	Metrics    prometheus.Gatherer
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

// New builds the fiber app with every route mounted.
func New(deps Deps) *fiber.App {
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "plantshop",
		ErrorHandler: errorHandler(logg),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestContext(logg))
	if deps.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/health", healthHandler(deps.Database))
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.AuthRequired(deps.Auth)

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(deps.Auth).RegisterRoutes(apiV1, requireAuth)

	productHandler := handlers.NewProductHandler(deps.Products)
	productHandler.RegisterRoutes(apiV1)

	categoryHandler := handlers.NewCategoryHandler(deps.Categories)
	categoryHandler.RegisterRoutes(apiV1)

	orderHandler := handlers.NewOrderHandler(deps.Orders)
	orderHandler.RegisterRoutes(apiV1, requireAuth)

	admin := apiV1.Group("/admin", requireAuth, middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	categoryHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)

	return app
}

func healthHandler(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "up",
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = fiber.StatusServiceUnavailable
				body["status"] = "degraded"
				body["database"] = "down"
			}
		}
		return c.Status(status).JSON(body)
	}
}

func errorHandler(logg *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := pkgerrors.CodeInternal
			switch fiberErr.Code {
			case fiber.StatusNotFound:
				code = "NOT_FOUND"
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
				"error":   code,
			})
		}
		logg.Error(c.UserContext(), "unhandled request error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
			"error":   pkgerrors.CodeInternal,
		})
	}
}
