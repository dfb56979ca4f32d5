package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// KafkaConfig holds broker and topic settings for the event plane.
type KafkaConfig struct {
	Brokers         []string
	SubmissionTopic string
	CompletedTopic  string
	ConsumerGroup   string
}

// SimilarityConfig selects and configures the free-text similarity provider.
// Provider is either "http" (external scoring endpoint) or "levenshtein"
// (local edit-distance fallback).
type SimilarityConfig struct {
	Provider string
	Endpoint string
	Timeout  time.Duration
}

// Config holds all application configuration
type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Kafka      KafkaConfig
	Similarity SimilarityConfig

	ClaimTTL           time.Duration
	ScoringConcurrency int
}

// LoadConfig loads configuration from environment variables, with a local
// .env file honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		Kafka: KafkaConfig{
			Brokers:         strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			SubmissionTopic: getEnv("KAFKA_SUBMISSION_TOPIC", "exam.submissions"),
			CompletedTopic:  getEnv("KAFKA_COMPLETED_TOPIC", "grading.completed"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "grading-service"),
		},
		Similarity: SimilarityConfig{
			Provider: getEnv("SIMILARITY_PROVIDER", "levenshtein"),
			Endpoint: getEnv("SIMILARITY_ENDPOINT", ""),
			Timeout:  getDurationEnv("SIMILARITY_TIMEOUT", 10*time.Second),
		},
		ClaimTTL:           getDurationEnv("CLAIM_TTL", 30*time.Second),
		ScoringConcurrency: getIntEnv("SCORING_CONCURRENCY", 8),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.Similarity.Provider == "http" && cfg.Similarity.Endpoint == "" {
		return nil, fmt.Errorf("SIMILARITY_ENDPOINT is required when SIMILARITY_PROVIDER is http")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
