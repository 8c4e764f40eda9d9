package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/opsdesk/helpdesk/internal/api/http/handlers"
	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Notes          *handlers.NotesHandler
	Users          *handlers.UsersHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	// Static segment registered ahead of the :id routes so "admin" never
	// resolves as a ticket code.
	tickets.Get("/admin/allTickets", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.ListAll)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.ListMine)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Delete)
	tickets.Get("/:id/attachment", cfg.Tickets.Attachment)
	tickets.Get("/:id/notes", cfg.Notes.List)
	tickets.Post("/:id/notes", cfg.Notes.Add)
	tickets.Put("/:id/reopen", cfg.Notes.Reopen)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/me", cfg.Users.Me)
	users.Put("/me", cfg.Users.UpdateMe)
	users.Get("/", auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
	users.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Update)

	analytics := app.Group("/analytics", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	analytics.Get("/tickets/status", cfg.Analytics.ByStatus)
	analytics.Get("/tickets/category", cfg.Analytics.ByCategory)
	analytics.Get("/tickets/priority", cfg.Analytics.ByPriority)
	analytics.Get("/tickets/service", cfg.Analytics.ByServiceType)
	analytics.Get("/tickets/servicetype", cfg.Analytics.ByServiceType)
	analytics.Get("/tickets/subcategory", cfg.Analytics.BySubCategory)
	analytics.Get("/tickets/subcategory/:category", cfg.Analytics.BySubCategory)
	analytics.Get("/tickets/overtime", cfg.Analytics.OverTime)
	analytics.Get("/users/total", cfg.Analytics.TotalUsers)
}
