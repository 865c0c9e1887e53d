// Package portfolio derives read-only account aggregates — market value,
// total assets, unrealized P&L — from ledger state plus a quote snapshot.
// Pure functions with no side effects; safe to call repeatedly with
// different quote snapshots for display refresh.
package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/costing"
	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Project computes the account summary for the profile page.
//
// A missing quote for a held symbol is an error, not silently skipped:
// dropping a position from the sum would understate total assets.
func Project(account *model.Account, positions []model.Position, quotes map[string]model.Quote) (*model.AccountSummary, error) {
	marketValue := decimal.Zero
	unrealized := decimal.Zero

	for _, p := range positions {
		q, ok := quotes[p.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: no quote for held symbol %s", ledger.ErrQuoteUnavailable, p.Symbol)
		}
		qty := decimal.NewFromInt(p.Quantity)
		marketValue = marketValue.Add(q.Price.Mul(qty))
		unrealized = unrealized.Add(q.Price.Sub(p.AvgCost).Mul(qty))
	}

	marketValue = marketValue.Round(costing.MoneyScale)
	unrealized = unrealized.Round(costing.MoneyScale)

	return &model.AccountSummary{
		UserID:          account.UserID,
		TotalAssets:     account.Cash.Add(marketValue),
		Cash:            account.Cash,
		MarketValue:     marketValue,
		UnrealizedPL:    unrealized,
		UnrealizedPLPct: plPercent(unrealized, marketValue),
		PositionCount:   len(positions),
		UpdatedAt:       account.UpdatedAt,
	}, nil
}

// EnrichPositions marks each position to market for the positions page.
// Fails with ErrQuoteUnavailable when any held symbol has no quote.
func EnrichPositions(positions []model.Position, quotes map[string]model.Quote) ([]model.PositionView, error) {
	views := make([]model.PositionView, 0, len(positions))
	for _, p := range positions {
		q, ok := quotes[p.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: no quote for held symbol %s", ledger.ErrQuoteUnavailable, p.Symbol)
		}

		marketValue := costing.Notional(p.Quantity, q.Price)
		pl := costing.UnrealizedPL(p.Quantity, q.Price, p.AvgCost)

		views = append(views, model.PositionView{
			Position:          p,
			CurrentPrice:      q.Price,
			MarketValue:       marketValue,
			ProfitLoss:        pl,
			ProfitLossPercent: plPercent(pl, marketValue),
		})
	}
	return views, nil
}

// plPercent returns pl / (marketValue - pl) * 100, i.e. the gain relative
// to cost basis, defined as 0 when the basis is 0.
func plPercent(pl, marketValue decimal.Decimal) decimal.Decimal {
	basis := marketValue.Sub(pl)
	if basis.IsZero() {
		return decimal.Zero
	}
	return pl.Div(basis).Mul(hundred).Round(costing.MoneyScale)
}
