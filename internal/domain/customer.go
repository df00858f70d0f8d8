/**
 * @description
 * This file defines the customer ledger model. The ledger carries the per-customer
 * financial fields that the lifecycle controller and the accrual engine mutate.
 */
package domain

import "time"

// Customer represents a customer's ledger entry. PPD ("profit per day") is the
// cumulative daily accrual rate contributed by all of the customer's activated
// investments. A nil PPD means no rate has ever been configured for the customer,
// which is distinct from a rate of zero: the accrual engine skips nil entries
// entirely.
type Customer struct {
	Username      string     `json:"username"`
	Plan          string     `json:"plan"`
	PPD           *int64     `json:"ppd,omitempty"`
	CurrentInvest int64      `json:"current_invest"`
	Profit        int64      `json:"profit"`
	LastAccrualAt *time.Time `json:"last_accrual_at,omitempty"`
}

// AccruedToday reports whether the customer's last accrual credit happened on the
// same calendar day as now, evaluated in loc. Used to keep the daily accrual run
// idempotent per (customer, calendar day).
func (c *Customer) AccruedToday(now time.Time, loc *time.Location) bool {
	if c.LastAccrualAt == nil {
		return false
	}
	last := c.LastAccrualAt.In(loc)
	day := now.In(loc)
	return last.Year() == day.Year() && last.YearDay() == day.YearDay()
}
