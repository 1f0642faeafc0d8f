package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examind-api/internal/config"
	"github.com/noah-isme/examind-api/internal/database"
	"github.com/noah-isme/examind-api/internal/handler"
	"github.com/noah-isme/examind-api/internal/middleware"
	"github.com/noah-isme/examind-api/internal/models"
	"github.com/noah-isme/examind-api/internal/repository"
	"github.com/noah-isme/examind-api/internal/router"
	"github.com/noah-isme/examind-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.UserProfile{},
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamAssignment{},
		&models.Submission{},
		&models.SubmissionAnswer{},
		&models.ErrorLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	examRepo := repository.NewExamRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	errorLogRepo := repository.NewErrorLogRepository(db)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost, logger)
	questionService, err := service.NewQuestionService(questionRepo, validate, logger)
	if err != nil {
		log.Fatalf("failed to compile question schemas: %v", err)
	}
	examService := service.NewExamService(examRepo, assignmentRepo, questionRepo, validate, redisClient, cfg.PaperCacheTTL, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, assignmentRepo, validate, logger)
	practiceService := service.NewPracticeService(questionRepo, validate, cfg.PracticeDrawSize, logger)
	adminUserService := service.NewAdminUserService(userRepo, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	questionHandler := handler.NewQuestionHandler(questionService, logger)
	examHandler := handler.NewExamHandler(examService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	practiceHandler := handler.NewPracticeHandler(practiceService, logger)
	adminHandler := handler.NewAdminHandler(adminUserService, logger)
	publicHandler := handler.NewPublicHandler(examService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:   &logger,
		ErrorLog: errorLogRepo,
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		QuestionHandler:   questionHandler,
		ExamHandler:       examHandler,
		SubmissionHandler: submissionHandler,
		PracticeHandler:   practiceHandler,
		AdminHandler:      adminHandler,
		PublicHandler:     publicHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		AuthResolver:      authService,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
