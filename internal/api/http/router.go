package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-gallery/internal/api/http/handlers"
	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Events         *handlers.EventsHandler
	Albums         *handlers.AlbumsHandler
	Media          *handlers.MediaHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimit guards credential endpoints. Nil disables it.
	RateLimit fiber.Handler
	// UploadDir is served under UploadPrefix when media is stored on local disk.
	UploadDir    string
	UploadPrefix string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	required := cfg.AuthMiddleware.Handle
	optional := cfg.AuthMiddleware.Optional
	limited := cfg.RateLimit
	if limited == nil {
		limited = func(c *fiber.Ctx) error { return c.Next() }
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", required, auth.RequireRole(domain.RoleAdmin), cfg.Metrics.Snapshot)

	if cfg.UploadDir != "" && cfg.UploadPrefix != "" {
		app.Static(cfg.UploadPrefix, cfg.UploadDir)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", limited, cfg.Auth.Signup)
	authGroup.Post("/login", limited, cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/me", required, cfg.Auth.WhoAmI)

	// Share routes are registered before /:id so "share" is never parsed as an id.
	app.Get("/share/events/:id", optional, cfg.Events.GetEvent)
	app.Get("/share/albums/:id", optional, cfg.Albums.GetAlbum)

	events := app.Group("/events")
	events.Get("/share/:id", optional, cfg.Events.GetEvent)
	events.Post("/", required, cfg.Events.CreateEvent)
	events.Get("/", required, cfg.Events.ListEvents)
	events.Get("/:id", optional, cfg.Events.GetEvent)
	events.Patch("/:id", required, cfg.Events.UpdateEvent)
	events.Delete("/:id", required, cfg.Events.DeleteEvent)
	events.Post("/:id/qr", required, cfg.Events.EnsureShare)
	events.Post("/:id/qr/regenerate", required, cfg.Events.RegenerateShare)
	events.Get("/:id/albums", optional, cfg.Albums.ListByEvent)

	albums := app.Group("/albums")
	albums.Get("/share/:id", optional, cfg.Albums.GetAlbum)
	albums.Post("/", required, cfg.Albums.CreateAlbum)
	albums.Get("/:id", optional, cfg.Albums.GetAlbum)
	albums.Patch("/:id", required, cfg.Albums.UpdateAlbum)
	albums.Delete("/:id", required, cfg.Albums.DeleteAlbum)
	albums.Post("/:id/qr", required, cfg.Albums.EnsureShare)
	albums.Post("/:id/qr/regenerate", required, cfg.Albums.RegenerateShare)
	albums.Get("/:id/media", optional, cfg.Media.ListMedia)
	albums.Post("/:id/media", required, cfg.Media.AddMedia)
	albums.Post("/:id/media/upload", required, cfg.Media.Upload)

	media := app.Group("/media")
	media.Get("/:id", optional, cfg.Media.GetMedia)
	media.Delete("/:id", required, cfg.Media.DeleteMedia)
}
