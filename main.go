package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/smart-grading/grading-service/internal/config"
	"github.com/smart-grading/grading-service/internal/events"
	"github.com/smart-grading/grading-service/internal/handlers"
	"github.com/smart-grading/grading-service/internal/repositories/postgres"
	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
	"github.com/smart-grading/grading-service/internal/validator"
	"github.com/smart-grading/grading-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewSlogLogger(cfg.LogLevel, cfg.Environment)
	slogLogger := logger.Slog()

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
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

	// Initialize event publisher
	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize validator and services
	v := validator.New()
	serviceManager := services.NewServiceManager(
		repoManager.GetRepository(), slogLogger, v, publisher,
		services.ServiceConfig{
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.TokenTTL,
		},
	)

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, repoManager.GetRepository())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("Failed to close event publisher: %v", err)
	}
	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shut down repositories: %v", err)
	}

	logger.Info("Server exited")
}
