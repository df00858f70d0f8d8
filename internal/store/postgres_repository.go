/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL for the investments and customers tables.
 *
 * Two properties of the original system are hardened here:
 *   - Activation updates the investment row and the customer ledger row inside a
 *     single transaction, so a missing customer rolls back the status write.
 *   - Decision updates are guarded with `status = 'pending'` so an investment
 *     contributes to the ledger at most once.
 * Ledger mutations use SQL add-delta updates (profit = profit + $n), never
 * read-modify-write in the application, to avoid lost updates under concurrency.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/growvest/investment-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvestmentNotFound       = errors.New("investment not found")
	ErrInvestmentAlreadyDecided = errors.New("investment already decided")
	ErrCustomerNotFound         = errors.New("customer not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const investmentColumns = `id, username, plan, amount, status, comment, created_at, updated_at`

func scanInvestment(row pgx.Row) (*domain.Investment, error) {
	var inv domain.Investment
	err := row.Scan(
		&inv.ID,
		&inv.Username,
		&inv.Plan,
		&inv.Amount,
		&inv.Status,
		&inv.Comment,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindInvestmentByID retrieves a single investment by its identifier.
func (r *PostgresRepository) FindInvestmentByID(ctx context.Context, investmentID uuid.UUID) (*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`
	inv, err := scanInvestment(r.db.QueryRow(ctx, query, investmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	return inv, nil
}

// FindInvestmentsByStatus retrieves all investments carrying the given status,
// newest first. An empty result is returned as an empty slice, not an error.
func (r *PostgresRepository) FindInvestmentsByStatus(ctx context.Context, status string) ([]domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := []domain.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// decisionGuard returns the WHERE fragment enforcing the pending-only transition
// guard unless the legacy re-decide behavior was explicitly enabled.
func decisionGuard(allowRedecide bool) string {
	if allowRedecide {
		return ""
	}
	return ` AND status = '` + domain.InvestmentStatusPending + `'`
}

// classifyDecisionMiss distinguishes "no such investment" from "investment exists
// but is no longer pending" after a guarded update matched zero rows.
func (r *PostgresRepository) classifyDecisionMiss(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, investmentID uuid.UUID) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM investments WHERE id = $1`, investmentID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvestmentNotFound
		}
		return err
	}
	return ErrInvestmentAlreadyDecided
}

// RejectInvestment marks an investment as rejected with the given comment. The
// customer ledger is never touched by a rejection.
func (r *PostgresRepository) RejectInvestment(ctx context.Context, params DecisionParams) (*domain.Investment, error) {
	query := `
        UPDATE investments
        SET status = $2, comment = $3, updated_at = NOW()
        WHERE id = $1` + decisionGuard(params.AllowRedecide) + `
        RETURNING ` + investmentColumns
	inv, err := scanInvestment(r.db.QueryRow(ctx, query, params.InvestmentID, domain.InvestmentStatusRejected, params.Comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyDecisionMiss(ctx, r.db, params.InvestmentID)
		}
		return nil, err
	}
	return inv, nil
}

// ActivateInvestment marks an investment as active and applies the ledger
// increments to the owning customer in one transaction: ppd grows by the plan's
// daily rate, current_invest by the invested amount, and the customer's plan is
// set to the investment's plan. A missing customer rolls the whole decision back.
func (r *PostgresRepository) ActivateInvestment(ctx context.Context, params ActivateParams) (*domain.Investment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin activation: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE investments
        SET status = $2, comment = $3, updated_at = NOW()
        WHERE id = $1` + decisionGuard(params.AllowRedecide) + `
        RETURNING ` + investmentColumns
	inv, err := scanInvestment(tx.QueryRow(ctx, query, params.InvestmentID, domain.InvestmentStatusActive, params.Comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyDecisionMiss(ctx, tx, params.InvestmentID)
		}
		return nil, err
	}

	ledger := `
        UPDATE customers
        SET ppd = COALESCE(ppd, 0) + $2,
            current_invest = current_invest + $3,
            plan = $4
        WHERE username = $1
    `
	tag, err := tx.Exec(ctx, ledger, inv.Username, params.PPDIncrement, inv.Amount, inv.Plan)
	if err != nil {
		return nil, fmt.Errorf("apply ledger increments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrCustomerNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit activation: %w", err)
	}
	return inv, nil
}

// FindCustomerByUsername retrieves a customer ledger entry.
func (r *PostgresRepository) FindCustomerByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	var cust domain.Customer
	query := `
        SELECT username, COALESCE(plan, ''), ppd, current_invest, profit, last_accrual_at
        FROM customers
        WHERE username = $1
    `
	err := r.db.QueryRow(ctx, query, username).Scan(
		&cust.Username,
		&cust.Plan,
		&cust.PPD,
		&cust.CurrentInvest,
		&cust.Profit,
		&cust.LastAccrualAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &cust, nil
}

// FindCustomersWithDailyRate fetches every customer that has a configured daily
// rate. Customers whose ppd column is NULL have never had a plan activated and
// are excluded entirely rather than treated as rate zero.
func (r *PostgresRepository) FindCustomersWithDailyRate(ctx context.Context) ([]domain.Customer, error) {
	query := `
        SELECT username, COALESCE(plan, ''), ppd, current_invest, profit, last_accrual_at
        FROM customers
        WHERE ppd IS NOT NULL
        ORDER BY username
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var cust domain.Customer
		err := rows.Scan(
			&cust.Username,
			&cust.Plan,
			&cust.PPD,
			&cust.CurrentInvest,
			&cust.Profit,
			&cust.LastAccrualAt,
		)
		if err != nil {
			return nil, err
		}
		customers = append(customers, cust)
	}
	return customers, rows.Err()
}

// CreditDailyProfit adds the given amount to a customer's cumulative profit and
// stamps the accrual time. The increment happens in SQL so concurrent accrual
// and activation cannot lose updates, and the dayStart guard makes the credit
// idempotent per calendar day even when two runs race: a row already stamped at
// or after dayStart matches nothing and the call reports no credit.
func (r *PostgresRepository) CreditDailyProfit(ctx context.Context, username string, amount int64, accruedAt, dayStart time.Time) (bool, error) {
	query := `
        UPDATE customers
        SET profit = profit + $2,
            last_accrual_at = $3
        WHERE username = $1
          AND (last_accrual_at IS NULL OR last_accrual_at < $4)
    `
	tag, err := r.db.Exec(ctx, query, username, amount, accruedAt, dayStart)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
