/**
 * @description
 * The daily profit accrual engine. Once per calendar day (anchored to the
 * configured timezone) every customer with a defined daily rate is credited
 * their ppd onto cumulative profit. Per-customer failures are logged and do not
 * abort the run. Two hardenings over the legacy system:
 *   - a customer already credited on the run's calendar day is skipped, so a
 *     duplicate trigger or a restart near midnight cannot double-credit;
 *   - an optional distributed lock serializes runs across process instances.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/growvest/investment-service/internal/domain"
)

// AccrualRepository is the slice of the store the accrual engine needs.
type AccrualRepository interface {
	FindCustomersWithDailyRate(ctx context.Context) ([]domain.Customer, error)
	CreditDailyProfit(ctx context.Context, username string, amount int64, accruedAt, dayStart time.Time) (bool, error)
}

// RunLocker guards against concurrent accrual runs across instances. Acquire
// returns false when another instance already holds the day's lock.
type RunLocker interface {
	AcquireDailyLock(ctx context.Context, day string) (bool, error)
}

// AccrualEventsRoutingKey is the queue accrual summaries are published to.
const AccrualEventsRoutingKey = "investment_service.accrual_events"

// AccrualSummary reports the outcome of one accrual run.
type AccrualSummary struct {
	Credited int `json:"credited"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// AccrualEngine credits daily profit onto customer ledgers.
type AccrualEngine struct {
	repo         AccrualRepository
	locker       RunLocker
	publisher    EventPublisher
	logger       *slog.Logger
	location     *time.Location
	storeTimeout time.Duration
}

// NewAccrualEngine creates an accrual engine. locker and publisher may be nil;
// a nil locker disables the multi-instance guard (fine for single-instance
// deployments) and a nil publisher disables event emission.
func NewAccrualEngine(repo AccrualRepository, locker RunLocker, publisher EventPublisher, logger *slog.Logger, location *time.Location, storeTimeout time.Duration) *AccrualEngine {
	if location == nil {
		location = time.UTC
	}
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &AccrualEngine{
		repo:         repo,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
		location:     location,
		storeTimeout: storeTimeout,
	}
}

// RunDailyAccrual performs one accrual pass for the calendar day containing now.
// It returns the run summary; the error is non-nil only when the customer scan
// itself fails — per-customer credit failures are absorbed into Summary.Failed.
func (e *AccrualEngine) RunDailyAccrual(ctx context.Context, now time.Time) (AccrualSummary, error) {
	local := now.In(e.location)
	day := local.Format("2006-01-02")
	// Midnight of the run's calendar day; the store refuses to credit a row
	// already stamped at or after this instant.
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.location)

	if e.locker != nil {
		acquired, err := e.locker.AcquireDailyLock(ctx, day)
		if err != nil {
			e.logger.Warn("accrual lock check failed; proceeding without guard", "day", day, "error", err)
		} else if !acquired {
			e.logger.Info("accrual already running or completed on another instance", "day", day)
			return AccrualSummary{}, nil
		}
	}

	listCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	customers, err := e.repo.FindCustomersWithDailyRate(listCtx)
	cancel()
	if err != nil {
		return AccrualSummary{}, err
	}

	var summary AccrualSummary
	for _, customer := range customers {
		if customer.PPD == nil {
			// Defensive: the scan query excludes NULL rates already.
			summary.Skipped++
			continue
		}
		if customer.AccruedToday(now, e.location) {
			summary.Skipped++
			continue
		}

		creditCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
		credited, err := e.repo.CreditDailyProfit(creditCtx, customer.Username, *customer.PPD, now, dayStart)
		cancel()
		if err != nil {
			summary.Failed++
			e.logger.Error("failed to credit daily profit", "username", customer.Username, "ppd", *customer.PPD, "error", err)
			continue
		}
		if !credited {
			// A concurrent run stamped the ledger between our scan and this write.
			summary.Skipped++
			e.logger.Info("customer already credited for the day", "username", customer.Username, "day", day)
			continue
		}
		summary.Credited++
	}

	e.logger.Info("daily accrual run finished",
		"day", day,
		"credited", summary.Credited,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	e.publishSummary(ctx, day, now, summary)
	return summary, nil
}

func (e *AccrualEngine) publishSummary(ctx context.Context, day string, now time.Time, summary AccrualSummary) {
	if e.publisher == nil {
		return
	}
	event := domain.AccrualCompletedEvent{
		RunDate:  day,
		Credited: summary.Credited,
		Skipped:  summary.Skipped,
		Failed:   summary.Failed,
		RanAt:    now.UTC(),
	}
	if err := e.publisher.Publish(ctx, "", AccrualEventsRoutingKey, event); err != nil {
		e.logger.Warn("failed to publish accrual summary event", "day", day, "error", err)
	}
}
