/**
 * @description
 * This file defines the `Repository` interface, the contract for all data access
 * operations required by the investment-service. The application's business logic
 * depends only on this interface, which keeps the lifecycle controller and the
 * accrual engine decoupled from PostgreSQL and easy to test with stubs.
 */
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/growvest/investment-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Investment methods
	FindInvestmentByID(ctx context.Context, investmentID uuid.UUID) (*domain.Investment, error)
	FindInvestmentsByStatus(ctx context.Context, status string) ([]domain.Investment, error)
	RejectInvestment(ctx context.Context, params DecisionParams) (*domain.Investment, error)
	ActivateInvestment(ctx context.Context, params ActivateParams) (*domain.Investment, error)

	// Customer ledger methods
	FindCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error)
	FindCustomersWithDailyRate(ctx context.Context) ([]domain.Customer, error)
	// CreditDailyProfit credits amount onto the customer's profit unless the
	// ledger was already stamped at or after dayStart. It reports whether a
	// credit was applied.
	CreditDailyProfit(ctx context.Context, username string, amount int64, accruedAt, dayStart time.Time) (bool, error)
}

// DecisionParams carries the inputs for a rejection decision.
type DecisionParams struct {
	InvestmentID uuid.UUID
	Comment      string
	// AllowRedecide disables the pending-only transition guard, restoring the
	// legacy behavior where an already-decided investment can be decided again.
	AllowRedecide bool
}

// ActivateParams carries the inputs for an activation decision. PPDIncrement is
// the daily rate contributed by the investment's plan, resolved by the caller
// from the plan catalog before the atomic activation.
type ActivateParams struct {
	InvestmentID  uuid.UUID
	Comment       string
	PPDIncrement  int64
	AllowRedecide bool
}
