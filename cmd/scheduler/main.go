/**
 * @description
 * This is the main entry point for the accrual scheduler. It is a non-HTTP,
 * long-running process that fires the daily profit accrual job at local
 * midnight in the configured timezone. It initializes the configuration,
 * database connection, the optional Redis run guard, and the cron scheduler,
 * then starts it.
 */
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/growvest/investment-service/internal/app"
	"github.com/growvest/investment-service/internal/config"
	"github.com/growvest/investment-service/internal/store"
	"github.com/growvest/investment-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Redis guard so only one instance credits a given calendar day.
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

	location, err := cfg.AccrualLocation()
	if err != nil {
		logger.Error("invalid accrual timezone", "error", err)
		os.Exit(1)
	}

	repository := store.NewPostgresRepository(dbpool)
	engine := app.NewAccrualEngine(repository, locker, publisher, logger, location, cfg.StoreTimeout())
	scheduler := app.NewScheduler(engine, logger, cfg.AccrualSchedule, location)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	logger.Info("scheduler started", "timezone", cfg.AccrualTimezone)

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for scheduler to fully stop
	logger.Info("scheduler stopped gracefully")
}
