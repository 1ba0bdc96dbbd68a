package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/http/handlers"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/auth"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/live"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Account        *handlers.AccountHandler
	Tickets        *handlers.TicketsHandler
	SupportTickets *handlers.SupportTicketsHandler
	Live           *handlers.LiveHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	signedIn := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), h}
	}
	app.Post("/auth/logout", signedIn(cfg.Users.Logout)...)
	app.Post("/auth/password/change", signedIn(cfg.Users.ChangePassword)...)

	app.Get("/me", signedIn(cfg.Account.Me)...)
	app.Patch("/me", signedIn(cfg.Account.UpdateMe)...)
	app.Delete("/me", signedIn(cfg.Account.DeleteMe)...)
	app.Get("/me/preferences", signedIn(cfg.Account.GetPreferences)...)
	app.Put("/me/preferences", signedIn(cfg.Account.PutPreferences)...)

	app.Get("/catalog", signedIn(cfg.Tickets.Catalog)...)
	app.Post("/tickets", signedIn(cfg.Tickets.Submit)...)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.UserRoleAdministrative))
	admin.Get("/tickets", cfg.Tickets.ListAdmin)
	admin.Get("/tickets/stream", cfg.Live.Stream(live.ViewAdmin))
	admin.Get("/tickets/:id", cfg.Tickets.Get)
	admin.Delete("/tickets/:id", cfg.Tickets.Delete)

	support := app.Group("/support", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.UserRoleSupport))
	support.Get("/technicians", cfg.SupportTickets.Technicians)
	support.Get("/tickets", cfg.SupportTickets.List)
	support.Get("/tickets/stream", cfg.Live.Stream(live.ViewSupport))
	support.Get("/tickets/:id", cfg.SupportTickets.Get)
	support.Get("/tickets/:id/history", cfg.SupportTickets.History)
	support.Patch("/tickets/:id/status", cfg.SupportTickets.UpdateStatus)
	support.Patch("/tickets/:id/technician", cfg.SupportTickets.AssignTechnician)
	support.Delete("/tickets/:id", cfg.Tickets.Delete)
}
