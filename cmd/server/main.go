/**
 * @description
 * This is the main entry point for the investment-service HTTP API. It is
 * responsible for initializing all components of the service: configuration,
 * database connection, message broker, the plan catalog, the lifecycle service,
 * the accrual engine (for the internal manual trigger), and the HTTP server.
 */
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/growvest/investment-service/internal/api"
	"github.com/growvest/investment-service/internal/app"
	"github.com/growvest/investment-service/internal/config"
	"github.com/growvest/investment-service/internal/plans"
	"github.com/growvest/investment-service/internal/store"
	"github.com/growvest/investment-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load the optional .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AdminJWTSecret == "" {
		logger.Error("admin jwt secret must be configured", "env", "ADMIN_JWT_SECRET")
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Initialize the RabbitMQ producer to publish lifecycle and accrual events.
	var publisher rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("rabbitmq producer unavailable; using fallback", "error", err)
			publisher = rabbitmq.NewEventProducerFallback(logger)
		} else {
			publisher = producer
			logger.Info("rabbitmq producer connected")
		}
	} else {
		publisher = rabbitmq.NewEventProducerFallback(logger)
	}
	defer publisher.Close()

	// Optional Redis client for the accrual run guard on the manual trigger.
	var locker app.RunLocker
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Warn("redis url parse failed; accrual run guard disabled", "error", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			locker = app.NewRedisAccrualLock(redisClient, cfg.RedisLockPrefix, 0)
		}
	}

	rates, err := cfg.PlanCatalogRates()
	if err != nil {
		logger.Error("invalid plan rates configuration", "error", err)
		os.Exit(1)
	}
	catalog := plans.NewCatalog(rates)

	location, err := cfg.AccrualLocation()
	if err != nil {
		logger.Error("invalid accrual timezone", "error", err)
		os.Exit(1)
	}

	repository := store.NewPostgresRepository(dbpool)
	service := app.NewService(repository, catalog, publisher, logger, cfg.LifecycleAllowRedecide)
	engine := app.NewAccrualEngine(repository, locker, publisher, logger, location, cfg.StoreTimeout())

	handlers := api.NewHandlers(service, engine, logger)
	router := api.NewRouter(handlers, cfg.AdminJWTSecret, cfg.InternalAPIKey)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("starting investment-service", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped gracefully")
}
