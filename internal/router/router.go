package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/examind-api/internal/config"
	"github.com/noah-isme/examind-api/internal/handler"
	"github.com/noah-isme/examind-api/internal/middleware"
	"github.com/noah-isme/examind-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	QuestionHandler   *handler.QuestionHandler
	ExamHandler       *handler.ExamHandler
	SubmissionHandler *handler.SubmissionHandler
	PracticeHandler   *handler.PracticeHandler
	AdminHandler      *handler.AdminHandler
	PublicHandler     *handler.PublicHandler
	JWTMiddleware     fiber.Handler
	AuthResolver      middleware.AuthResolver
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	authMiddleware := []fiber.Handler{jwtMiddleware, middleware.LoadAuthContext(deps.AuthResolver)}

	// Accounts
	if deps.AuthHandler != nil {
		auth := app.Group("/api/auth")
		deps.AuthHandler.Register(auth)
		auth.Get("/me", append(authMiddleware, deps.AuthHandler.Me)...)
	}

	// Public exam discovery, no token required
	if deps.PublicHandler != nil {
		public := app.Group("/api/public")
		deps.PublicHandler.Register(public)
	}

	// Question bank. The ?list=public variant serves the key-stripped,
	// active-only catalogue to anyone; everything else falls through to the
	// authoring group.
	if deps.QuestionHandler != nil {
		app.Get("/api/questions", func(c *fiber.Ctx) error {
			if c.Query("list") == "public" {
				return deps.QuestionHandler.ListPublic(c)
			}
			return c.Next()
		})

		questions := app.Group("/api/questions", authMiddleware...)
		questions.Use(middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
		deps.QuestionHandler.Register(questions)
	}

	// Exams: authoring, lifecycle and papers. The ?list=public variant is
	// served without a token; everything else falls through to the
	// authenticated group below.
	if deps.ExamHandler != nil && deps.PublicHandler != nil {
		app.Get("/api/exams", func(c *fiber.Ctx) error {
			if c.Query("list") == "public" {
				return deps.PublicHandler.ListExams(c)
			}
			return c.Next()
		})
	}
	if deps.ExamHandler != nil {
		exams := app.Group("/api/exams", authMiddleware...)
		deps.ExamHandler.Register(exams)

		if deps.SubmissionHandler != nil {
			exams.Post("/:id/start", deps.SubmissionHandler.Start)
			exams.Get("/:id/submissions", deps.SubmissionHandler.ListByExam)
		}
	}

	// Attempt lifecycle
	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/submissions", authMiddleware...)
		deps.SubmissionHandler.Register(submissions)
	}

	// Ungraded practice
	if deps.PracticeHandler != nil {
		practice := app.Group("/api/practice", authMiddleware...)
		deps.PracticeHandler.Register(practice)
	}

	// Administrative overrides
	if deps.AdminHandler != nil {
		admin := app.Group("/api/admin", authMiddleware...)
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		deps.AdminHandler.Register(admin)
	}
}
