/**
 * @description
 * Event payloads published to the message broker so downstream consumers
 * (dashboard feeds, notification workers) can react to lifecycle decisions
 * and completed accrual runs.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvestmentDecidedEvent is published after a lifecycle decision has been committed.
type InvestmentDecidedEvent struct {
	InvestmentID uuid.UUID `json:"investment_id"`
	Username     string    `json:"username"`
	Plan         string    `json:"plan"`
	Amount       int64     `json:"amount"`
	Status       string    `json:"status"`
	Comment      string    `json:"comment"`
	DecidedAt    time.Time `json:"decided_at"`
}

// AccrualCompletedEvent is published after a daily accrual run finishes.
type AccrualCompletedEvent struct {
	RunDate  string    `json:"run_date"`
	Credited int       `json:"credited"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	RanAt    time.Time `json:"ran_at"`
}
