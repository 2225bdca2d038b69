package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"storefront/internal/config"
	applog "storefront/internal/log"
)

// BodyLimit caps request bodies at 1 MiB.
const BodyLimit = 1 << 20

// ErrorHandler answers JSON and never echoes internal error text for 5xx.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong. Please try again.",
	})
}

// NewApp builds the fiber app with middleware and every API route.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    BodyLimit,
		ErrorHandler: ErrorHandler,
	})

	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 60
	}
	loginMax := cfg.LoginRateLimit
	if loginMax <= 0 {
		loginMax = 5
	}

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        perMin,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(Bearer(deps.Auth))

	api := app.Group("/api")

	// Catalog
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/categories", deps.CategoryHandler.Categories)
	api.Get("/brands", deps.CategoryHandler.Brands)
	api.Get("/availability", availLimiter, deps.InventoryHandler.Check)

	// Auth (login throttled)
	api.Post("/auth/local", limiter.New(limiter.Config{
		Max:        loginMax,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	api.Post("/auth/local/register", deps.AuthHandler.Register)
	api.Post("/auth/logout", deps.AuthHandler.Logout)

	// Orders
	api.Post("/orders", RequireUser(), Authorize(deps.OrderPolicy, ""), deps.OrderHandler.Place)
	api.Get("/orders", RequireUser(), Authorize(deps.OrderPolicy, ""), deps.OrderHandler.List)
	api.Get("/orders/:id", Authorize(deps.OrderPolicy, "id"), deps.OrderHandler.Get)
	api.Put("/orders/:id/cancel", Authorize(deps.OrderPolicy, "id"), deps.OrderHandler.Cancel)

	// Users
	api.Get("/users/me", RequireUser(), deps.UserHandler.Me)
	api.Put("/users/me", RequireUser(), deps.UserHandler.UpdateMe)
	api.Get("/users/:id", Authorize(deps.SelfPolicy, "id"), deps.UserHandler.Get)

	// Admin
	admin := api.Group("/admin", RequireAdmin())
	admin.Put("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Put("/products/:id/stock", deps.AdminHandler.UpdateStock)
	admin.Get("/users", deps.AdminHandler.ListUsers)
	admin.Delete("/users/:id", deps.AdminHandler.DeleteUser)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	return app
}
