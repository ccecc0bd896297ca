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

	"github.com/nexlearn/assess-go-api/internal/config"
	"github.com/nexlearn/assess-go-api/internal/database"
	"github.com/nexlearn/assess-go-api/internal/handler"
	"github.com/nexlearn/assess-go-api/internal/middleware"
	"github.com/nexlearn/assess-go-api/internal/models"
	"github.com/nexlearn/assess-go-api/internal/repository"
	"github.com/nexlearn/assess-go-api/internal/router"
	"github.com/nexlearn/assess-go-api/internal/service"
	cloud "github.com/nexlearn/assess-go-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(&models.Course{}, &models.Assessment{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	var fallbackRepo repository.AssessmentRepository
	if cfg.OfflineFallback {
		fallbackRepo = repository.SeedStore().Assessments()
	}

	catalogService := service.NewCatalogService(assessmentRepo, fallbackRepo, redisClient, cfg.CatalogCacheTTL, logger)
	draftService := service.NewDraftService(catalogService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assessmentRepo, validate, uploader, logger)
	gradingService := service.NewGradingService(submissionRepo, validate, logger)

	draftHandler := handler.NewDraftHandler(draftService, logger)
	assessmentHandler := handler.NewAssessmentHandler(catalogService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		DraftHandler:      draftHandler,
		AssessmentHandler: assessmentHandler,
		SubmissionHandler: submissionHandler,
		GradingHandler:    gradingHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
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
