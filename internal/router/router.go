package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/config"
	"github.com/noah-isme/edusync-assessment-api/internal/handler"
	"github.com/noah-isme/edusync-assessment-api/internal/middleware"
	"github.com/noah-isme/edusync-assessment-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	SubmissionHandler *handler.SubmissionHandler
	ResultHandler     *handler.ResultHandler
	StatisticsHandler *handler.StatisticsHandler
	ActivityHandler   *handler.ActivityHandler
	SeedHandler       *handler.SeedHandler
	JWTMiddleware     fiber.Handler
	DB                *gorm.DB
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Submission and result routes are registered before the generic /:id routes.
	assessments := app.Group("/api/v2/assessments", jwtMiddleware)
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(assessments)
	}
	if deps.ResultHandler != nil {
		deps.ResultHandler.Register(assessments)
	}
	if deps.StatisticsHandler != nil {
		deps.StatisticsHandler.Register(assessments)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.ActivityHandler != nil {
		admin := app.Group("/api/v2/admin", jwtMiddleware, middleware.RequireRole(middleware.StaffRoles...))
		deps.ActivityHandler.Register(admin.Group("/activities"))
	}
}
