package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/benefits-desk/internal/api/http/handlers"
	"github.com/spec-kit/benefits-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/duplicates", cfg.Admin.CheckDuplicates)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", auth.RequireStaff(), cfg.Tickets.UpdateTicket)
	tickets.Get("/:id/events", auth.RequireStaff(), cfg.Tickets.ListEvents)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/escalate", auth.RequireStaff(), cfg.Tickets.Escalate)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Get("/:id/sla", cfg.Tickets.GetSlaStatus)
	tickets.Post("/:id/sla/pause", auth.RequireStaff(), cfg.Tickets.PauseSla)
	tickets.Post("/:id/sla/resume", auth.RequireStaff(), cfg.Tickets.ResumeSla)
	tickets.Get("/:id/escalation", auth.RequireStaff(), cfg.Tickets.EscalationAdvice)

	api.Post("/sla/sweep", auth.RequireStaff(), cfg.Admin.SweepBreaches)
	api.Post("/triage/preview", auth.RequireStaff(), cfg.Admin.TriagePreview)
}
