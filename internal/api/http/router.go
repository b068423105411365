package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/http/handlers"
	"github.com/worklane/ticket-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Actors         *handlers.ActorsHandler
	Catalog        *handlers.CatalogHandler
	Tickets        *handlers.TicketsHandler
	Tracking       *handlers.TrackingHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Actors.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireActor())

	protected.Get("/actors/me", cfg.Actors.Me)
	protected.Get("/actors", cfg.Actors.List)
	protected.Post("/actors", auth.RequireAdmin(), cfg.Actors.Create)

	protected.Get("/projects", cfg.Catalog.ListProjects)
	protected.Post("/projects", cfg.Catalog.CreateProject)
	protected.Get("/projects/:id/stages", cfg.Catalog.ListStages)
	protected.Post("/projects/:id/stages", cfg.Catalog.CreateStage)
	protected.Get("/worktypes", cfg.Catalog.ListWorkTypes)
	protected.Post("/worktypes", cfg.Catalog.CreateWorkType)
	protected.Get("/tags", cfg.Catalog.ListTags)
	protected.Post("/tags", cfg.Catalog.CreateTag)

	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Post("/tickets", cfg.Tickets.CreateTicket)
	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)
	protected.Patch("/tickets/:id", cfg.Tickets.UpdateTicket)
	protected.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	protected.Get("/tickets/:id/history", cfg.Tickets.History)
	protected.Post("/tickets/:id/timer/start", cfg.Tracking.StartTimer)
	protected.Post("/tickets/:id/timer/stop", cfg.Tracking.StopTimer)

	protected.Get("/timers/active", cfg.Tracking.ActiveTimer)
	protected.Get("/worklogs", cfg.Tracking.ListWorkLogs)
	protected.Post("/worklogs", cfg.Tracking.LogWork)
	protected.Get("/dashboard", cfg.Tracking.Dashboard)

	protected.Get("/notifications", cfg.Notifications.List)
	protected.Get("/notifications/unread_count", cfg.Notifications.UnreadCount)
	protected.Post("/notifications/mark_all_read", cfg.Notifications.MarkAllRead)
	protected.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
}
