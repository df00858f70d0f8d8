/**
 * @description
 * Cron scheduler wiring for the accrual engine. The core depends on the
 * scheduler only through RunDailyAccrual; this file owns the cron mechanics:
 * the schedule expression, the timezone anchor, and panic recovery.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the daily accrual job at the configured wall-clock instant.
type Scheduler struct {
	cron     *cron.Cron
	engine   *AccrualEngine
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a scheduler anchored to the given timezone. The default
// schedule "0 0 * * *" fires at local midnight in that zone.
func NewScheduler(engine *AccrualEngine, logger *slog.Logger, schedule string, location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cronLogger)),
	)

	return &Scheduler{
		cron:     c,
		engine:   engine,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the accrual job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.engine.RunDailyAccrual(context.Background(), time.Now()); err != nil {
			s.logger.Error("daily accrual run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("scheduled daily accrual job", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop gracefully stops the cron scheduler. The returned context is done once
// any in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
