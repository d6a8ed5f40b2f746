package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/care-scheduling-service/internal/api/http/handlers"
	"github.com/spec-kit/care-scheduling-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Professionals  *handlers.ProfessionalsHandler
	Appointments   *handlers.AppointmentsHandler
	Monitoring     *handlers.MonitoringHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes. The rate limiter runs before the auth
// middleware on public routes (keyed by source IP) and after it on protected
// routes (keyed by principal).
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth", cfg.RateLimit)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/register", cfg.AuthMiddleware.Handle, auth.RequirePermission(auth.PermManageUsers), cfg.Auth.Register)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	professionals := app.Group("/professionals", cfg.AuthMiddleware.Handle, cfg.RateLimit)
	professionals.Get("/", auth.RequirePermission(auth.PermReadProfessional), cfg.Professionals.List)
	professionals.Post("/", auth.RequirePermission(auth.PermCreateProfessional), cfg.Professionals.Create)
	professionals.Get("/:id", auth.RequirePermission(auth.PermReadProfessional), cfg.Professionals.Get)
	professionals.Put("/:id", auth.RequirePermission(auth.PermUpdateProfessional), cfg.Professionals.Update)
	professionals.Patch("/:id", auth.RequirePermission(auth.PermUpdateProfessional), cfg.Professionals.Update)
	professionals.Delete("/:id", auth.RequirePermission(auth.PermDeleteProfessional), cfg.Professionals.Delete)

	appointments := app.Group("/appointments", cfg.AuthMiddleware.Handle, cfg.RateLimit)
	appointments.Get("/", auth.RequirePermission(auth.PermReadAppointment), cfg.Appointments.List)
	appointments.Post("/", auth.RequirePermission(auth.PermCreateAppointment), cfg.Appointments.Create)
	appointments.Get("/:id", auth.RequirePermission(auth.PermReadAppointment), cfg.Appointments.Get)
	appointments.Put("/:id", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Update)
	appointments.Patch("/:id", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Update)
	appointments.Delete("/:id", auth.RequirePermission(auth.PermDeleteAppointment), cfg.Appointments.Delete)
	appointments.Post("/:id/confirm", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Confirm)
	appointments.Post("/:id/start", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Start)
	appointments.Post("/:id/no-show", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.NoShow)
	appointments.Post("/:id/complete", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Complete)
	appointments.Post("/:id/cancel", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Cancel)
	appointments.Post("/:id/reschedule", auth.RequirePermission(auth.PermUpdateAppointment), cfg.Appointments.Reschedule)

	monitoring := app.Group("/monitoring", cfg.AuthMiddleware.Handle)
	monitoring.Get("/metrics", auth.RequirePermission(auth.PermViewMetrics), cfg.Monitoring.Metrics)
}
