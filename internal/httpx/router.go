// Package httpx wires the Fiber application: common middleware, health and
// metrics endpoints, swagger UI and the /api/v1 routes.
package httpx

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"cardvault-api/internal/collection"
	"cardvault-api/internal/config"
	"cardvault-api/internal/httpx/auth"
	"cardvault-api/internal/httpx/entities"
	"cardvault-api/internal/httpx/fields"
	"cardvault-api/internal/httpx/kit"
	"cardvault-api/internal/httpx/mw"
	"cardvault-api/internal/metrics"
	"cardvault-api/internal/redisx"
	"cardvault-api/internal/store"
)

// Deps are the collaborators the routes are built from. Redis and Metrics may be nil.
type Deps struct {
	Config  *config.Config
	Users   store.UserStore
	Service *collection.Service
	Tokens  *auth.Tokens
	Redis   *redisx.Client
	Metrics *metrics.Registry
}

// NewApp returns a Fiber app with the unified error handler and the common middlewares.
func NewApp(m *metrics.Registry) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: kit.ErrorHandler()})
	RegisterCommonMiddlewares(app, m)
	return app
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	app.Get("/health", HealthHandler)
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := app.Group("/api/v1",
		mw.JWTMiddlewareDynamic(d.Tokens.Parser()),
		mw.RateLimitDefault(d.Redis, d.Config.RateLimit.WindowSec, d.Config.RateLimit.Max),
	)
	auth.Mount(api, d.Tokens, d.Users)
	fields.Mount(api, d.Service)
	entities.Mount(api, d.Service)
}
