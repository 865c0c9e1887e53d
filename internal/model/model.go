// Package model defines the core domain types shared across the trade core.
// All monetary values use shopspring/decimal — never float64 for money.
// Share quantities are int64: the A-share market trades in whole board lots.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order statuses. An order is terminal once filled or rejected.
const (
	OrderStatusPending  = "pending"
	OrderStatusFilled   = "filled"
	OrderStatusRejected = "rejected"
)

// Account holds a user's available cash. One per user, created at
// onboarding; mutated only by the order engine inside a ledger transaction.
type Account struct {
	UserID    string          `json:"user_id" db:"user_id"`
	Cash      decimal.Decimal `json:"cash" db:"cash"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Position is a user's aggregate holding in one stock, keyed by
// (userID, symbol). A position that reaches zero quantity is deleted,
// never retained.
type Position struct {
	UserID       string          `json:"user_id" db:"user_id"`
	Symbol       string          `json:"symbol" db:"symbol"`
	Name         string          `json:"name" db:"name"`
	Quantity     int64           `json:"quantity" db:"quantity"` // multiple of the board lot
	AvgCost      decimal.Decimal `json:"avg_cost" db:"avg_cost"` // volume-weighted entry price
	PurchaseDate time.Time       `json:"purchase_date" db:"purchase_date"`
}

// Order is an immutable record of an accepted trade intent. Once status is
// filled or rejected the record is never modified again.
type Order struct {
	ID             string          `json:"id" db:"id"`
	UserID         string          `json:"user_id" db:"user_id"`
	Symbol         string          `json:"symbol" db:"symbol"`
	Name           string          `json:"name" db:"name"`
	Side           string          `json:"side" db:"side"` // "buy" or "sell"
	Quantity       int64           `json:"quantity" db:"quantity"`
	RequestedPrice decimal.Decimal `json:"requested_price" db:"requested_price"`
	FilledPrice    decimal.Decimal `json:"filled_price" db:"filled_price"`
	Status         string          `json:"status" db:"status"`
	RejectReason   string          `json:"reject_reason,omitempty" db:"reject_reason"`
	RealizedPL     decimal.Decimal `json:"realized_pl" db:"realized_pl"` // sells only
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	FilledAt       time.Time       `json:"filled_at,omitempty" db:"filled_at"`
}

// WatchlistEntry is one stock on a user's watchlist, keyed by
// (userID, symbol). SortOrder is user-controlled; ties break by CreatedAt.
type WatchlistEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Name      string    `json:"name" db:"name"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Quote is a last-traded price snapshot from the external quote source.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	PrevClose decimal.Decimal `json:"prev_close"`
	Timestamp time.Time       `json:"timestamp"`
}

// PositionView is a Position enriched with mark-to-market fields for the
// positions page. Derived on read; never stored.
type PositionView struct {
	Position
	CurrentPrice      decimal.Decimal `json:"current_price"`
	MarketValue       decimal.Decimal `json:"market_value"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

// AccountSummary is the derived account view used by the profile page.
// Pure function of Account + Positions + quotes; see the portfolio package.
type AccountSummary struct {
	UserID          string          `json:"user_id"`
	TotalAssets     decimal.Decimal `json:"total_assets"`
	Cash            decimal.Decimal `json:"cash"`
	MarketValue     decimal.Decimal `json:"market_value"`
	UnrealizedPL    decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPct decimal.Decimal `json:"unrealized_pl_percent"`
	PositionCount   int             `json:"position_count"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
