// Package store defines the persistence interface for the trade core.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and development).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/model"
)

// Store is the persistence interface. All mutable financial state —
// accounts, positions, orders, watchlist entries — is owned here.
//
// WithUserLedger is the sole serialization point for ledger mutations:
// concurrent calls for the same user are serialized, calls for different
// users never block each other. Reads outside a transaction may observe
// a snapshot slightly stale relative to an in-flight trade.
type Store interface {
	// WithUserLedger acquires exclusive access to one user's ledger slice
	// and runs fn against a consistent view of it. All writes fn produces
	// commit atomically when fn returns nil, and are discarded when fn
	// returns an error.
	WithUserLedger(ctx context.Context, userID string, fn func(tx LedgerTx) error) error

	// --- Read-only queries (no transaction required) ---

	// GetAccount returns the user's account, or ledger.ErrNotFound.
	GetAccount(ctx context.Context, userID string) (*model.Account, error)

	// GetPositions returns all of the user's positions.
	GetPositions(ctx context.Context, userID string) ([]model.Position, error)

	// GetPosition returns one position, or nil if the user holds none.
	GetPosition(ctx context.Context, userID, symbol string) (*model.Position, error)

	// GetOrders returns one page of the user's order history, newest
	// first, plus the total order count. Pages are 1-based.
	GetOrders(ctx context.Context, userID string, page, pageSize int) ([]model.Order, int, error)

	// --- Onboarding / operational ---

	// CreateAccount persists a new account. Fails if one exists.
	CreateAccount(ctx context.Context, account *model.Account) error

	// InsertOrder appends an order record outside a ledger transaction.
	// Used for rejected orders; filled orders are written inside
	// WithUserLedger.
	InsertOrder(ctx context.Context, order *model.Order) error

	// --- Watchlist ---

	// ListWatchlist returns entries ordered by sort order, then insertion
	// time.
	ListWatchlist(ctx context.Context, userID string) ([]model.WatchlistEntry, error)

	// UpsertWatchlistEntry adds an entry; adding a present symbol is a
	// no-op success.
	UpsertWatchlistEntry(ctx context.Context, entry *model.WatchlistEntry) error

	// DeleteWatchlistEntry removes an entry; removing an absent symbol is
	// a no-op success.
	DeleteWatchlistEntry(ctx context.Context, userID, symbol string) error
}

// LedgerTx is the view handed to WithUserLedger's fn: reads see any writes
// already staged in the same transaction, and no writes are visible
// outside the transaction until commit.
type LedgerTx interface {
	// Account returns the user's account, or ledger.ErrNotFound.
	Account() (*model.Account, error)

	// Position returns the user's position in symbol, or nil if none.
	Position(symbol string) (*model.Position, error)

	// SetAccountCash stages a new cash balance on the account.
	SetAccountCash(cash decimal.Decimal) error

	// UpsertPosition stages a position create or update.
	UpsertPosition(p *model.Position) error

	// DeletePosition stages removal of the position in symbol.
	DeletePosition(symbol string) error

	// InsertOrder stages an order record.
	InsertOrder(o *model.Order) error
}
