/**
 * @description
 * This package holds the plan catalog: the static mapping from an investment plan
 * name to its daily profit rate. The catalog is consulted when an investment is
 * activated to determine how much the customer's daily rate increases.
 */
package plans

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultRates are the built-in plan rates, in minor currency units per day.
// They can be replaced at configuration time via PLAN_RATES.
var DefaultRates = map[string]int64{
	"silver": 4,
	"gold":   20,
}

// Catalog resolves plan names to daily profit rates.
type Catalog struct {
	rates map[string]int64
}

// NewCatalog creates a catalog from the given rates. A nil or empty map falls
// back to the built-in defaults.
func NewCatalog(rates map[string]int64) *Catalog {
	if len(rates) == 0 {
		rates = DefaultRates
	}
	copied := make(map[string]int64, len(rates))
	for plan, rate := range rates {
		copied[plan] = rate
	}
	return &Catalog{rates: copied}
}

// Rate returns the daily profit rate for the given plan. Unknown plans resolve
// to 0 rather than failing, so an activation with an unrecognized plan still
// succeeds without changing the customer's daily rate.
func (c *Catalog) Rate(plan string) int64 {
	return c.rates[plan]
}

// Plans returns the names of all configured plans.
func (c *Catalog) Plans() []string {
	names := make([]string, 0, len(c.rates))
	for plan := range c.rates {
		names = append(names, plan)
	}
	return names
}

// ParseRates parses a "plan=rate,plan=rate" configuration string, e.g.
// "silver=4,gold=20,platinum=55". An empty string yields an empty map, which
// NewCatalog treats as "use defaults".
func ParseRates(raw string) (map[string]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	rates := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid plan rate entry %q", pair)
		}
		rate, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for plan %q: %w", name, err)
		}
		if rate < 0 {
			return nil, fmt.Errorf("negative rate for plan %q", name)
		}
		rates[name] = rate
	}
	return rates, nil
}
