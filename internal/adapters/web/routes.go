package web

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RouteConfig holds what SetupRoutes wires besides the handlers.
type RouteConfig struct {
	// AuthToken must match the Authorization header on crawl routes.
	AuthToken   string
	RateLimiter *RateLimiter
	// OnRateLimited is called for each rejected request. Optional.
	OnRateLimited func()
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewApp creates the fiber app with the JSON error handler and the
// request-scoped middleware every route shares.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "forumintel",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(RequestIDConfig()))
	app.Use(RequestIDToContextMiddleware())
	app.Use(RequestLoggerMiddleware())
	app.Use(cors.New(CORSConfig()))
	return app
}

// SetupRoutes configures the application routes.
func SetupRoutes(app *fiber.App, handlers *Handlers, cfg RouteConfig) {
	// Unauthenticated probes
	app.Get("/health", handlers.Health)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	// Crawl endpoints: token first, so unauthenticated callers cannot
	// drain a client's rate budget.
	api := app.Group("/forum-scraper", KeyAuth(cfg.AuthToken))
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware(cfg.OnRateLimited))
	}

	// Example: /forum-scraper/acme%20corp/report
	api.Get("/:searchText/report", handlers.Report)
	api.Get("/:searchText?", handlers.Search)
}
