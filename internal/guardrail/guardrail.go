// Package guardrail enforces beginner-protection limits on buy orders:
// a cap on the number of shares held in any single stock and a cap on
// the notional value of a single order.
//
// The product targets first-time investors; the limits keep one stock
// from swallowing an account. Sells are never blocked — reducing risk is
// always allowed.
package guardrail

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrPositionLimitExceeded is returned when a buy would push the
	// holding in one symbol past the per-symbol share cap.
	ErrPositionLimitExceeded = errors.New("guardrail: per-symbol position limit exceeded")

	// ErrNotionalLimitExceeded is returned when a single order's value
	// exceeds the per-order notional cap.
	ErrNotionalLimitExceeded = errors.New("guardrail: order notional limit exceeded")
)

// Limiter holds the configured caps. A zero value on either field
// disables that check.
type Limiter struct {
	// MaxPositionQty is the maximum share count held in any one symbol.
	MaxPositionQty int64

	// MaxOrderNotional is the maximum value of a single order.
	MaxOrderNotional decimal.Decimal
}

// NewLimiter creates a limiter with the given caps. Pass zero values to
// disable individual checks.
func NewLimiter(maxPositionQty int64, maxOrderNotional decimal.Decimal) *Limiter {
	return &Limiter{
		MaxPositionQty:   maxPositionQty,
		MaxOrderNotional: maxOrderNotional,
	}
}

// CheckBuy validates a buy of qty shares with the given notional against
// the caps, considering the currently held quantity in the same symbol.
// Returns nil if the order is within limits.
func (l *Limiter) CheckBuy(heldQty, qty int64, notional decimal.Decimal) error {
	if l == nil {
		return nil
	}
	if l.MaxPositionQty > 0 && heldQty+qty > l.MaxPositionQty {
		return ErrPositionLimitExceeded
	}
	if l.MaxOrderNotional.IsPositive() && notional.GreaterThan(l.MaxOrderNotional) {
		return ErrNotionalLimitExceeded
	}
	return nil
}
