package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/config"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/handlers"
	"github.com/SAP-F-2025/course-service/internal/mailer"
	"github.com/SAP-F-2025/course-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"github.com/SAP-F-2025/course-service/pkg"
	"github.com/SAP-F-2025/course-service/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured). The service runs uncached without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, caching disabled", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	validator := validator.New()
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)

	// Outbound collaborators
	var mail mailer.Mailer
	if cfg.Mail.Provider == "sendgrid" {
		mail = mailer.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.AppName, cfg.Mail.From)
	} else {
		mail = mailer.NewConsoleMailer(cfg.Mail.AppName, slogLogger)
	}

	var publisher events.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		publisher = events.NewLogEventPublisher(slogLogger)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Cache:     cache.NewCacheManager(redisClient, cfg.CacheTTL),
		Publisher: publisher,
		Bus:       events.NewChannelBus(slogLogger),
		Mailer:    mail,
		Tokens:    tokens,
		Logger:    slogLogger,
		Validator: validator,
	}, services.ServiceManagerConfig{
		AdminSecretKey:    cfg.AdminSecretKey,
		UnverifiedUserTTL: cfg.UnverifiedUserTTL,
		SweepInterval:     cfg.SweepInterval,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	verifier := handlers.NewTokenVerifier(cfg, tokens, repo.User())
	handlerManager := handlers.NewHandlerManager(serviceManager, verifier, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, cfg.CORS, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "auth_provider", cfg.AuthProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stops the sweeper and closes the live bus and the event publisher
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Closes the database pool and the Redis client
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
