package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibe-music/vibe-music-server/internal/api/http/handlers"
	"github.com/vibe-music/vibe-music-server/internal/auth"
	"github.com/vibe-music/vibe-music-server/internal/domain"
	"github.com/vibe-music/vibe-music-server/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Users      *handlers.UsersHandler
	Admin      *handlers.AdminHandler
	Gatekeeper *auth.Gatekeeper
	Metrics    *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Every route registered here sits behind
// the gatekeeper; public ones are exempted by its allow-list.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gatekeeper.Handle)

	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}

	user := app.Group("/user")
	user.Get("/sendVerificationCode", cfg.Users.SendVerificationCode)
	user.Post("/register", cfg.Users.Register)
	user.Post("/login", cfg.Users.Login)
	user.Patch("/resetUserPassword", cfg.Users.ResetPassword)
	user.Post("/logout", cfg.Users.Logout)
	user.Get("/getUserInfo", cfg.Users.GetUserInfo)
	user.Put("/updateUserInfo", cfg.Users.UpdateUserInfo)
	user.Patch("/updateUserAvatar", cfg.Users.UpdateUserAvatar)
	user.Patch("/updateUserPassword", cfg.Users.UpdatePassword)
	user.Delete("/deleteAccount", cfg.Users.DeleteAccount)

	admin := app.Group("/admin")
	admin.Post("/login", cfg.Admin.Login)
	admin.Post("/logout", cfg.Admin.Logout)
	admin.Post("/register", auth.RequireRole(domain.RoleAdmin), cfg.Admin.Register)
}
