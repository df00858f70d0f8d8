/**
 * @description
 * This file contains the core business logic of the investment lifecycle: applying
 * accept/reject decisions to pending investments and serving investment queries.
 * The Service layer orchestrates the repository and the plan catalog and publishes
 * decision events for downstream consumers.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/growvest/investment-service/internal/domain"
	"github.com/growvest/investment-service/internal/plans"
	"github.com/growvest/investment-service/internal/store"
)

var (
	// ErrInvalidDecision is returned when a decision is neither 'active' nor 'rejected'.
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrInvalidStatus is returned when a status query carries an unrecognized value.
	ErrInvalidStatus = errors.New("invalid investment status")
)

// EventPublisher publishes domain events to the message broker. Implementations
// must tolerate broker outages; publishing is best-effort and never blocks a
// committed decision from being reported to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// DecisionEventsRoutingKey is the queue decisions are published to.
const DecisionEventsRoutingKey = "investment_service.lifecycle_events"

// Service provides the business logic for investment lifecycle management.
type Service struct {
	repo          store.Repository
	catalog       *plans.Catalog
	publisher     EventPublisher
	logger        *slog.Logger
	allowRedecide bool
}

// NewService creates a new lifecycle service. publisher may be nil when no
// broker is configured.
func NewService(repo store.Repository, catalog *plans.Catalog, publisher EventPublisher, logger *slog.Logger, allowRedecide bool) *Service {
	return &Service{
		repo:          repo,
		catalog:       catalog,
		publisher:     publisher,
		logger:        logger,
		allowRedecide: allowRedecide,
	}
}

// Decide applies a lifecycle decision to a pending investment.
//
// A rejection only stamps the status and comment. An activation additionally
// credits the owning customer's ledger: ppd grows by the plan's daily rate
// (0 for plans missing from the catalog), current_invest by the invested
// amount, and the ledger's plan is set to the investment's plan. The status
// write and the ledger increments are atomic; a missing customer leaves the
// investment pending.
func (s *Service) Decide(ctx context.Context, investmentID uuid.UUID, decision, comment string) (*domain.Investment, error) {
	if !domain.ValidDecision(decision) {
		return nil, ErrInvalidDecision
	}

	inv, err := s.repo.FindInvestmentByID(ctx, investmentID)
	if err != nil {
		return nil, err
	}

	var decided *domain.Investment
	switch decision {
	case domain.InvestmentStatusRejected:
		decided, err = s.repo.RejectInvestment(ctx, store.DecisionParams{
			InvestmentID:  investmentID,
			Comment:       comment,
			AllowRedecide: s.allowRedecide,
		})
	case domain.InvestmentStatusActive:
		decided, err = s.repo.ActivateInvestment(ctx, store.ActivateParams{
			InvestmentID:  investmentID,
			Comment:       comment,
			PPDIncrement:  s.catalog.Rate(inv.Plan),
			AllowRedecide: s.allowRedecide,
		})
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("investment decided",
		"investment_id", decided.ID,
		"username", decided.Username,
		"plan", decided.Plan,
		"status", decided.Status,
	)
	s.publishDecision(ctx, decided)
	return decided, nil
}

func (s *Service) publishDecision(ctx context.Context, inv *domain.Investment) {
	if s.publisher == nil {
		return
	}
	event := domain.InvestmentDecidedEvent{
		InvestmentID: inv.ID,
		Username:     inv.Username,
		Plan:         inv.Plan,
		Amount:       inv.Amount,
		Status:       inv.Status,
		Comment:      inv.Comment,
		DecidedAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, "", DecisionEventsRoutingKey, event); err != nil {
		s.logger.Warn("failed to publish decision event", "investment_id", inv.ID, "error", err)
	}
}

// GetInvestment retrieves a single investment by id.
func (s *Service) GetInvestment(ctx context.Context, investmentID uuid.UUID) (*domain.Investment, error) {
	return s.repo.FindInvestmentByID(ctx, investmentID)
}

// ListInvestmentsByStatus returns every investment with the given status. An
// unknown status value is an input error; a known status with no matches is a
// valid empty result. The legacy system reported the empty case as not-found,
// which this service deliberately relaxes to an empty list.
func (s *Service) ListInvestmentsByStatus(ctx context.Context, status string) ([]domain.Investment, error) {
	if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.FindInvestmentsByStatus(ctx, status)
}

// GetCustomer retrieves a customer ledger entry by username.
func (s *Service) GetCustomer(ctx context.Context, username string) (*domain.Customer, error) {
	return s.repo.FindCustomerByUsername(ctx, username)
}

// PlanRates returns the configured plan catalog as a name-to-daily-rate map.
func (s *Service) PlanRates() map[string]int64 {
	rates := make(map[string]int64)
	for _, plan := range s.catalog.Plans() {
		rates[plan] = s.catalog.Rate(plan)
	}
	return rates
}
