/**
 * @description
 * This file defines the core domain models for the investment-service.
 * It includes the Investment struct that maps to the database table and the
 * set of lifecycle statuses an investment can carry.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Investment lifecycle statuses. An investment is created as 'pending' by the
// submission flow and is moved to exactly one terminal status by an admin decision.
const (
	InvestmentStatusPending  = "pending"
	InvestmentStatusActive   = "active"
	InvestmentStatusRejected = "rejected"
)

// Investment represents a customer's submitted investment.
type Investment struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Plan      string    `json:"plan"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is one of the known investment statuses.
func ValidStatus(s string) bool {
	switch s {
	case InvestmentStatusPending, InvestmentStatusActive, InvestmentStatusRejected:
		return true
	}
	return false
}

// ValidDecision reports whether s is a terminal status an admin may decide.
// Only 'active' and 'rejected' are acceptable decisions; 'pending' is not.
func ValidDecision(s string) bool {
	return s == InvestmentStatusActive || s == InvestmentStatusRejected
}
