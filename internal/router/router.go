package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/thesis-go-api/internal/config"
	"github.com/noah-isme/thesis-go-api/internal/handler"
	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GroupHandler    *handler.GroupHandler
	CouncilHandler  *handler.CouncilHandler
	ScheduleHandler *handler.ScheduleHandler
	ConfigHandler   *handler.ConfigHandler
	ActivityHandler *handler.ActivityHandler
	HealthProbes    map[string]handler.HealthProbe
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	limit := middleware.RateLimit("api", cfg.RateLimitMax, time.Minute)

	if deps.GroupHandler != nil {
		deps.GroupHandler.Register(api.Group("/groups", jwtMiddleware, limit))
	}

	if deps.CouncilHandler != nil {
		councils := api.Group("/councils", jwtMiddleware, limit)
		deps.CouncilHandler.Register(councils)
		if deps.ScheduleHandler != nil {
			deps.ScheduleHandler.RegisterCouncilRoutes(councils)
		}
	}

	if deps.ScheduleHandler != nil {
		deps.ScheduleHandler.Register(api.Group("/defense-schedules", jwtMiddleware, limit))
	}

	if deps.ConfigHandler != nil {
		deps.ConfigHandler.Register(api.Group("/config", jwtMiddleware, middleware.RequireRole(middleware.StaffRoles...)))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity-logs", jwtMiddleware, middleware.RequireRole(middleware.StaffRoles...)))
	}
}
