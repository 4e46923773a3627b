package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/locallens/internal/pkg/metrics"
)

const (
	readTimeout = 15 * time.Second
	// Endpoints that wait on the language model.
	llmTimeout = 90 * time.Second
)

// SetupRoutes registers the widget endpoints, REST, GraphQL and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(legacyRoutes))

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Widget endpoints (unversioned, payload shapes fixed by the map client)
	app.Post("/add_poi", timeout.NewWithContext(AddPOIHandler(deps), llmTimeout))
	app.Get("/get_pois", timeout.NewWithContext(GetPOIsHandler(deps), readTimeout))
	app.Post("/search", timeout.NewWithContext(SearchHandler(deps), llmTimeout))
	app.Post("/send-to-llm", timeout.NewWithContext(SendAreaHandler(deps), readTimeout))

	v1 := app.Group("/v1")
	v1.Get("/pois", timeout.NewWithContext(ListPOIsHandler(deps), readTimeout))
	v1.Get("/pois/nearby", timeout.NewWithContext(NearbyPOIsHandler(deps), readTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// WebSocket digest relay
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errUnavailable(c, "digest relay requires NATS")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	if deps.NATS != nil {
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}

	// Widget page and assets
	if deps.StaticDir != "" {
		app.Static("/", deps.StaticDir, fiber.Static{Index: "index.html"})
	}
}
