// Package costing implements the board-lot and cost-basis arithmetic for
// the single-asset ledger: notional value, volume-weighted average cost,
// and realized P&L.
//
// The A-share market trades in board lots of 100 shares; quantities are
// whole lots, prices tick at 0.01 yuan. All monetary values use
// shopspring/decimal — never float64 for money.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/ledger"
)

// LotSize is the board lot: the minimum tradable unit, 100 shares.
const LotSize = 100

// CostScale is the number of decimal places kept on average cost.
// Finer than the 0.01 price tick so repeated blends don't drift.
var CostScale int32 = 4

// MoneyScale is the number of decimal places for cash and P&L amounts.
var MoneyScale int32 = 2

// ValidateQuantity checks that qty is a positive multiple of the board lot.
func ValidateQuantity(qty int64) error {
	if qty <= 0 || qty%LotSize != 0 {
		return ledger.ErrInvalidQuantity
	}
	return nil
}

// ValidatePrice checks that the reference price is positive.
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return ledger.ErrInvalidPrice
	}
	return nil
}

// Notional returns qty * price rounded to money precision.
func Notional(qty int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(qty)).Round(MoneyScale)
}

// BlendAvgCost recomputes the volume-weighted average cost after a buy:
//
//	newAvg = (oldQty*oldAvg + qty*price) / (oldQty + qty)
//
// With oldQty == 0 this reduces to price. Sells never call this; average
// cost is unchanged on the way down.
func BlendAvgCost(oldQty int64, oldAvg decimal.Decimal, qty int64, price decimal.Decimal) decimal.Decimal {
	oldNotional := oldAvg.Mul(decimal.NewFromInt(oldQty))
	newNotional := price.Mul(decimal.NewFromInt(qty))
	total := decimal.NewFromInt(oldQty + qty)
	return oldNotional.Add(newNotional).Div(total).Round(CostScale)
}

// RealizedPL returns the profit locked in by selling qty shares at
// sellPrice against the pre-trade average cost:
//
//	pl = qty * (sellPrice - avgCost)
func RealizedPL(qty int64, sellPrice, avgCost decimal.Decimal) decimal.Decimal {
	return sellPrice.Sub(avgCost).Mul(decimal.NewFromInt(qty)).Round(MoneyScale)
}

// UnrealizedPL returns the paper gain on qty held shares marked at the
// current price against average cost.
func UnrealizedPL(qty int64, currentPrice, avgCost decimal.Decimal) decimal.Decimal {
	return currentPrice.Sub(avgCost).Mul(decimal.NewFromInt(qty)).Round(MoneyScale)
}
