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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusync-assessment-api/internal/config"
	"github.com/noah-isme/edusync-assessment-api/internal/database"
	"github.com/noah-isme/edusync-assessment-api/internal/handler"
	"github.com/noah-isme/edusync-assessment-api/internal/middleware"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
	"github.com/noah-isme/edusync-assessment-api/internal/router"
	"github.com/noah-isme/edusync-assessment-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, detailed result caching disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not set, submission events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	resultCache := service.NewResultCache(redisClient, cfg.ResultsCacheTTL, logger)
	events := service.NewEventPublisher(natsConn, cfg.NATSSubject)

	activityService := service.NewActivityService(activityRepo, logger)
	assessmentService := service.NewAssessmentService(service.AssessmentRepositories{
		Assessments: assessmentRepo,
		Courses:     courseRepo,
		Users:       userRepo,
		Enrollments: enrollmentRepo,
		Submissions: submissionRepo,
	}, validate, activityService, resultCache, cfg.DefaultQuestionMarks, logger)
	submissionService := service.NewSubmissionService(assessmentRepo, userRepo, submissionRepo, validate, resultCache, events, logger)
	gradingService := service.NewGradingService(submissionRepo, validate, activityService, resultCache, events, logger)
	resultService := service.NewResultService(submissionRepo, resultCache, logger)
	statisticsService := service.NewStatisticsService(assessmentRepo, analyticsRepo, resultCache, logger)
	seedService := service.NewSeedService(repository.NewDirectorySeeder(db), validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	submitLimiter := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: handler.NewAssessmentHandler(assessmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, gradingService, submitLimiter, logger),
		ResultHandler:     handler.NewResultHandler(resultService, logger),
		StatisticsHandler: handler.NewStatisticsHandler(statisticsService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		DB:                db,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
