package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/wms-platform/task-control-service/internal/infrastructure/clients"
	"github.com/wms-platform/task-control-service/pkg/kafka"
	"github.com/wms-platform/task-control-service/pkg/mongodb"
	"github.com/wms-platform/task-control-service/pkg/tracing"
)

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Tracing    *tracing.Config

	TaskCollection    string
	UserCollection    string
	CounterCollection string

	Product   clients.Config
	Shelf     clients.Config
	Logistics clients.Config

	NotifyTimeout         time.Duration
	ConstraintConcurrency int
	JWTSecret             string
}

// loadConfig reads an optional .env file, then the environment
func loadConfig() *Config {
	_ = godotenv.Load()

	downstreamTimeout := getDuration("DOWNSTREAM_TIMEOUT", 5*time.Second)

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", "task_control_db")

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092"))
	kafkaConfig.ClientID = serviceName

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", tracingConfig.OTLPEndpoint)
	tracingConfig.Environment = getEnv("ENVIRONMENT", tracingConfig.Environment)
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "false") == "true"

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":4003"),
		MongoDB:    mongoConfig,
		Kafka:      kafkaConfig,
		Tracing:    tracingConfig,

		TaskCollection:    getEnv("TASK_COLLECTION", "tasks"),
		UserCollection:    getEnv("USER_COLLECTION", "users"),
		CounterCollection: getEnv("COUNTER_COLLECTION", "counters"),

		Product: clients.Config{
			Name:    "product",
			BaseURL: getEnv("PRODUCT_SERVICE_URL", "http://localhost:4001/api/v1/products"),
			Timeout: downstreamTimeout,
		},
		Shelf: clients.Config{
			Name:    "shelf",
			BaseURL: getEnv("SHELF_SERVICE_URL", "http://localhost:4002/api/v1"),
			Timeout: downstreamTimeout,
		},
		Logistics: clients.Config{
			Name:    "logistics",
			BaseURL: getEnv("LOGISTICS_SERVICE_URL", "http://localhost:4004/api/v1"),
			Timeout: downstreamTimeout,
		},

		NotifyTimeout:         getDuration("NOTIFY_TIMEOUT", 10*time.Second),
		ConstraintConcurrency: getInt("CONSTRAINT_CONCURRENCY", 4),
		JWTSecret:             getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
