package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.ChangePassword)

	accounts := app.Group("/accounts", cfg.AuthMiddleware.Handle)
	accounts.Post("",
		auth.RequireRole(domain.RoleSystemOwner, domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleItPerson),
		cfg.Accounts.Create)
	accounts.Get("/:id", cfg.Accounts.Get)
	accounts.Patch("/:id", cfg.Accounts.Update)
	accounts.Delete("/:id", cfg.Accounts.Deactivate)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", auth.RequireRole(domain.RoleUser, domain.RoleItPerson), cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/close", auth.RequireRole(domain.RoleItPerson), cfg.Tickets.Close)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachments)

	metrics := app.Group("/metrics", cfg.AuthMiddleware.Handle)
	metrics.Get("",
		auth.RequireRole(domain.RoleSystemOwner, domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleItPerson),
		cfg.Metrics.Scoped)
	metrics.Get("/dashboard", auth.RequireRole(domain.RoleSuperAdmin), cfg.Metrics.Dashboard)
}
