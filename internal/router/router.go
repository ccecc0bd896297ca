package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nexlearn/assess-go-api/internal/config"
	"github.com/nexlearn/assess-go-api/internal/handler"
	"github.com/nexlearn/assess-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DraftHandler      *handler.DraftHandler
	AssessmentHandler *handler.AssessmentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AssessmentHandler != nil {
		assessments := app.Group("/api/v2/assessments", jwtMiddleware)

		if deps.DraftHandler != nil {
			draftGroup := assessments.Group("/drafts")
			deps.DraftHandler.Register(draftGroup)
		}

		deps.AssessmentHandler.Register(assessments)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(submissions)
		}
	}
}
