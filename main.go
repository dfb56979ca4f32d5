package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"

	"github.com/exam-platform/grading-service/internal/config"
	"github.com/exam-platform/grading-service/internal/events"
	"github.com/exam-platform/grading-service/internal/handlers"
	"github.com/exam-platform/grading-service/internal/lock"
	"github.com/exam-platform/grading-service/internal/repositories/postgres"
	"github.com/exam-platform/grading-service/internal/services"
	"github.com/exam-platform/grading-service/internal/similarity"
	"github.com/exam-platform/grading-service/internal/validator"
	"github.com/exam-platform/grading-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	wmLogger := watermill.NewSlogLogger(logger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Select the similarity provider
	var oracle similarity.Oracle
	switch cfg.Similarity.Provider {
	case "http":
		oracle = similarity.NewHTTPOracle(cfg.Similarity.Endpoint, cfg.Similarity.Timeout)
	default:
		oracle = similarity.NewLevenshteinOracle()
	}

	// Initialize the grading claim
	claimer := lock.NewRedisClaimer(redisClient, cfg.ClaimTTL)

	// Initialize the event publisher
	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.CompletedTopic, wmLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(
		repoManager.GetRepository(),
		oracle,
		claimer,
		publisher,
		logger,
		validator,
		services.GradingConfig{
			ScoringConcurrency: cfg.ScoringConcurrency,
			SimilarityTimeout:  cfg.Similarity.Timeout,
		},
	)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize the submission consumer
	subscriber, err := events.NewKafkaSubscriber(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, wmLogger)
	if err != nil {
		log.Fatalf("Failed to initialize kafka subscriber: %v", err)
	}
	consumer, err := events.NewConsumer(subscriber, cfg.Kafka.SubmissionTopic, serviceManager.Grading(), logger, wmLogger)
	if err != nil {
		log.Fatalf("Failed to initialize consumer: %v", err)
	}

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	go func() {
		if err := consumer.Run(consumerCtx); err != nil {
			log.Fatalf("Consumer stopped: %v", err)
		}
	}()
	<-consumer.Running()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
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

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop consuming before draining anything else
	consumerCancel()
	if err := consumer.Close(); err != nil {
		log.Printf("Failed to close consumer: %v", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
