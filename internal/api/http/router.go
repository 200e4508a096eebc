package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/event-tickets/internal/api/http/handlers"
	"github.com/spec-kit/event-tickets/internal/auth"
	"github.com/spec-kit/event-tickets/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Verify         *handlers.VerifyHandler
	Notify         *handlers.NotifyHandler
	Metrics        *observability.Metrics
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api")
	api.Post("/verify", cfg.Verify.Verify)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireOrganizer())

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Patch("/:id/type", cfg.Tickets.ChangeType)
	tickets.Patch("/:id/sent", cfg.Tickets.MarkSent)
	tickets.Patch("/:id/active", cfg.Tickets.SetActive)
	tickets.Get("/:id/deliveries", cfg.Tickets.Deliveries)

	notifyGroup := protected.Group("/notify")
	notifyGroup.Post("/send", cfg.Notify.Send)
	notifyGroup.Post("/bulk", cfg.Notify.SendBulk)
	notifyGroup.Post("/schedule", cfg.Notify.Schedule)
	notifyGroup.Get("/scheduled", cfg.Notify.ListScheduled)
	notifyGroup.Delete("/scheduled/:jobId", cfg.Notify.CancelScheduled)
	notifyGroup.Get("/status", cfg.Notify.Status)
}
