package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/task-control-service/internal/application"
	"github.com/wms-platform/task-control-service/internal/infrastructure/clients"
	mongoRepo "github.com/wms-platform/task-control-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/task-control-service/pkg/cloudevents"
	"github.com/wms-platform/task-control-service/pkg/kafka"
	"github.com/wms-platform/task-control-service/pkg/logging"
	"github.com/wms-platform/task-control-service/pkg/metrics"
	"github.com/wms-platform/task-control-service/pkg/middleware"
	"github.com/wms-platform/task-control-service/pkg/mongodb"
	"github.com/wms-platform/task-control-service/pkg/outbox"
	"github.com/wms-platform/task-control-service/pkg/resilience"
	"github.com/wms-platform/task-control-service/pkg/tracing"
)

const serviceName = "task-control-service"

func main() {
	config := loadConfig()

	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()
	logger.Info("Starting task-control-service API")

	if config.JWTSecret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	ctx := context.Background()

	tracerProvider, err := tracing.Initialize(ctx, config.Tracing)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB, logger.WithComponent("mongodb"))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	db := mongoClient.Database()
	eventFactory := cloudevents.NewEventFactory("/" + serviceName)
	taskRepo := mongoRepo.NewTaskRepository(db, config.TaskCollection, eventFactory)
	userRepo := mongoRepo.NewUserRepository(db, config.UserCollection)
	counterRepo := mongoRepo.NewCounterRepository(db, config.CounterCollection)
	if err := counterRepo.EnsureSeeded(ctx); err != nil {
		logger.WithError(err).Error("Failed to seed task code counter")
		os.Exit(1)
	}

	producer := kafka.NewProducer(config.Kafka)
	defer producer.Close()

	publisher := outbox.NewPublisher(taskRepo.OutboxRepository(), producer, logger, m, outbox.DefaultPublisherConfig())
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}

	breakers := resilience.NewCircuitBreakerRegistry(logger.WithComponent("circuit-breaker"), nil, m.SetCircuitBreakerState)
	constraintClient := clients.NewConstraintClient(config.Product, config.Shelf, breakers, logger, m)
	logisticsClient := clients.NewLogisticsClient(config.Logistics, breakers, logger, m)

	notifier := application.NewCompletionNotifier(logisticsClient, config.NotifyTimeout, m, logger)
	taskService := application.NewTaskApplicationService(
		taskRepo,
		application.NewSequenceAllocator(counterRepo),
		application.NewConstraintEvaluator(constraintClient, m, config.ConstraintConcurrency),
		notifier,
		m,
		logger,
	)

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger, m))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, mongoClient.HealthCheck))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	auth := middleware.Authenticate(&middleware.AuthConfig{
		Secret:   []byte(config.JWTSecret),
		Resolver: newUserIdentityResolver(userRepo),
		Logger:   logger,
	})
	registerRoutes(router, taskService, auth, logger)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	notifier.Wait()
	if err := publisher.Stop(); err != nil {
		logger.WithError(err).Warn("Failed to stop outbox publisher")
	}

	logger.Info("Server stopped")
}
