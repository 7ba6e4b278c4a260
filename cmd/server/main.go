package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisAdapter "github.com/resellhub/listing-service/internal/adapter/cache/redis"
	"github.com/resellhub/listing-service/internal/adapter/httpserver"
	natsAdapter "github.com/resellhub/listing-service/internal/adapter/messaging/nats"
	mongoRepo "github.com/resellhub/listing-service/internal/adapter/repository/mongodb"
	"github.com/resellhub/listing-service/internal/config"
	"github.com/resellhub/listing-service/internal/listing/usecase"
	"github.com/resellhub/listing-service/internal/platform/logger"
	"github.com/resellhub/listing-service/internal/platform/metrics"
	"github.com/resellhub/listing-service/internal/platform/tracer"
	"github.com/resellhub/listing-service/internal/port/cache"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "listing-service"

func main() {
	// Load .env file (optional, for local development).
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	// OpenTelemetry tracer.
	if cfg.OTExporterOTLPEndpoint != "" {
		tp := tracer.InitTracer(serviceName, cfg.OTExporterOTLPEndpoint, appLogger)
		defer func() {
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	// MongoDB. Connect is idempotent: it acquires the process-wide client once.
	mongoClient, err := mongoRepo.Connect(context.Background(), cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	// NATS publisher. Optional: the service runs without eventing.
	var publisher usecase.EventPublisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Warn("NATS unavailable, lifecycle events disabled", zap.Error(err))
	} else {
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	// Redis cache. Optional: the service falls back to store reads.
	var cacheRepo cache.CacheRepository
	redisClient, err := redisAdapter.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("Redis unavailable, listing cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo = redisAdapter.NewRedisCacheRepository(redisClient, appLogger)
	}

	// Repository and lifecycle engine.
	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ListingRepository", zap.Error(err))
	}
	listingUC := usecase.NewListingUsecase(listingRepo, publisher, cacheRepo, appLogger)

	// Metrics.
	var metricsManager *metrics.MetricsManager
	if cfg.PrometheusMetricsPort != "" {
		metricsManager = metrics.NewMetricsManager("listing_service")
		go func() {
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	// HTTP server.
	handler := httpserver.NewListingHandler(listingUC, appLogger, metricsManager)
	router := httpserver.NewRouter(handler, appLogger, metricsManager)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	appLogger.Info("Application shutting down...")
	// Deferred cleanups (MongoDB, NATS, Redis, tracer) execute now.
}
