package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
)

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
//
// The per-user ledger transaction locks the user's account row FOR UPDATE,
// which serializes same-user trades at the database while leaving other
// users' rows untouched.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) WithUserLedger(ctx context.Context, userID string, fn func(tx LedgerTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ledger.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	ptx := &pgTx{ctx: ctx, tx: tx, userID: userID}
	if err := ptx.lockAccount(); err != nil {
		return err
	}
	if err := fn(ptx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

// pgTx implements LedgerTx over one pgx transaction.
type pgTx struct {
	ctx     context.Context
	tx      pgx.Tx
	userID  string
	account model.Account
}

// lockAccount reads and row-locks the user's account. This is the
// serialization point for same-user ledger transactions.
func (t *pgTx) lockAccount() error {
	var cash string
	err := t.tx.QueryRow(t.ctx,
		`SELECT user_id, cash::TEXT, updated_at
		 FROM accounts WHERE user_id = $1 FOR UPDATE`, t.userID).
		Scan(&t.account.UserID, &cash, &t.account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: account %s", ledger.ErrNotFound, t.userID)
	}
	if err != nil {
		return fmt.Errorf("%w: lock account: %v", ledger.ErrStoreUnavailable, err)
	}
	t.account.Cash, _ = decimal.NewFromString(cash)
	return nil
}

func (t *pgTx) Account() (*model.Account, error) {
	copied := t.account
	return &copied, nil
}

func (t *pgTx) Position(symbol string) (*model.Position, error) {
	var p model.Position
	var avgCost string
	err := t.tx.QueryRow(t.ctx,
		`SELECT user_id, symbol, name, quantity, avg_cost::TEXT, purchase_date
		 FROM positions WHERE user_id = $1 AND symbol = $2`, t.userID, symbol).
		Scan(&p.UserID, &p.Symbol, &p.Name, &p.Quantity, &avgCost, &p.PurchaseDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get position: %v", ledger.ErrStoreUnavailable, err)
	}
	p.AvgCost, _ = decimal.NewFromString(avgCost)
	return &p, nil
}

func (t *pgTx) SetAccountCash(cash decimal.Decimal) error {
	_, err := t.tx.Exec(t.ctx,
		`UPDATE accounts SET cash = $2::NUMERIC, updated_at = now()
		 WHERE user_id = $1`, t.userID, cash.String())
	if err != nil {
		return fmt.Errorf("%w: update cash: %v", ledger.ErrStoreUnavailable, err)
	}
	t.account.Cash = cash
	t.account.UpdatedAt = time.Now()
	return nil
}

func (t *pgTx) UpsertPosition(p *model.Position) error {
	_, err := t.tx.Exec(t.ctx,
		`INSERT INTO positions (user_id, symbol, name, quantity, avg_cost, purchase_date)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6)
		 ON CONFLICT (user_id, symbol) DO UPDATE
		 SET name = EXCLUDED.name, quantity = EXCLUDED.quantity,
		     avg_cost = EXCLUDED.avg_cost`,
		t.userID, p.Symbol, p.Name, p.Quantity, p.AvgCost.String(), p.PurchaseDate)
	if err != nil {
		return fmt.Errorf("%w: upsert position: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (t *pgTx) DeletePosition(symbol string) error {
	_, err := t.tx.Exec(t.ctx,
		`DELETE FROM positions WHERE user_id = $1 AND symbol = $2`, t.userID, symbol)
	if err != nil {
		return fmt.Errorf("%w: delete position: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (t *pgTx) InsertOrder(o *model.Order) error {
	if err := insertOrder(t.ctx, t.tx, o); err != nil {
		return fmt.Errorf("%w: insert order: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	var filledAt *time.Time
	if !o.FilledAt.IsZero() {
		filledAt = &o.FilledAt
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, symbol, name, side, quantity,
		                     requested_price, filled_price, status, reject_reason,
		                     realized_pl, created_at, filled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9, $10,
		         $11::NUMERIC, $12, $13)`,
		o.ID, o.UserID, o.Symbol, o.Name, o.Side, o.Quantity,
		o.RequestedPrice.String(), o.FilledPrice.String(), o.Status, o.RejectReason,
		o.RealizedPL.String(), o.CreatedAt, filledAt)
	return err
}

// --- Read-only queries ---

func (s *PostgresStore) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	var a model.Account
	var cash string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, cash::TEXT, updated_at FROM accounts WHERE user_id = $1`, userID).
		Scan(&a.UserID, &cash, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", ledger.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get account: %v", ledger.ErrStoreUnavailable, err)
	}
	a.Cash, _ = decimal.NewFromString(cash)
	return &a, nil
}

func (s *PostgresStore) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, symbol, name, quantity, avg_cost::TEXT, purchase_date
		 FROM positions WHERE user_id = $1 ORDER BY symbol`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get positions: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		var avgCost string
		if err := rows.Scan(&p.UserID, &p.Symbol, &p.Name, &p.Quantity, &avgCost, &p.PurchaseDate); err != nil {
			return nil, err
		}
		p.AvgCost, _ = decimal.NewFromString(avgCost)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) GetPosition(ctx context.Context, userID, symbol string) (*model.Position, error) {
	var p model.Position
	var avgCost string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, symbol, name, quantity, avg_cost::TEXT, purchase_date
		 FROM positions WHERE user_id = $1 AND symbol = $2`, userID, symbol).
		Scan(&p.UserID, &p.Symbol, &p.Name, &p.Quantity, &avgCost, &p.PurchaseDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get position: %v", ledger.ErrStoreUnavailable, err)
	}
	p.AvgCost, _ = decimal.NewFromString(avgCost)
	return &p, nil
}

func (s *PostgresStore) GetOrders(ctx context.Context, userID string, page, pageSize int) ([]model.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count orders: %v", ledger.ErrStoreUnavailable, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, symbol, name, side, quantity,
		        requested_price::TEXT, filled_price::TEXT, status, reject_reason,
		        realized_pl::TEXT, created_at, filled_at
		 FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: get orders: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var reqPrice, fillPrice, realizedPL string
		var filledAt *time.Time
		if err := rows.Scan(&o.ID, &o.UserID, &o.Symbol, &o.Name, &o.Side, &o.Quantity,
			&reqPrice, &fillPrice, &o.Status, &o.RejectReason,
			&realizedPL, &o.CreatedAt, &filledAt); err != nil {
			return nil, 0, err
		}
		o.RequestedPrice, _ = decimal.NewFromString(reqPrice)
		o.FilledPrice, _ = decimal.NewFromString(fillPrice)
		o.RealizedPL, _ = decimal.NewFromString(realizedPL)
		if filledAt != nil {
			o.FilledAt = *filledAt
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (user_id, cash, updated_at)
		 VALUES ($1, $2::NUMERIC, $3)`,
		account.UserID, account.Cash.String(), account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create account: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) InsertOrder(ctx context.Context, order *model.Order) error {
	var filledAt *time.Time
	if !order.FilledAt.IsZero() {
		filledAt = &order.FilledAt
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO orders (id, user_id, symbol, name, side, quantity,
		                     requested_price, filled_price, status, reject_reason,
		                     realized_pl, created_at, filled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9, $10,
		         $11::NUMERIC, $12, $13)`,
		order.ID, order.UserID, order.Symbol, order.Name, order.Side, order.Quantity,
		order.RequestedPrice.String(), order.FilledPrice.String(), order.Status,
		order.RejectReason, order.RealizedPL.String(), order.CreatedAt, filledAt)
	if err != nil {
		return fmt.Errorf("%w: insert order: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

// --- Watchlist ---

func (s *PostgresStore) ListWatchlist(ctx context.Context, userID string) ([]model.WatchlistEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, symbol, name, sort_order, created_at
		 FROM watchlist WHERE user_id = $1
		 ORDER BY sort_order, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list watchlist: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var entries []model.WatchlistEntry
	for rows.Next() {
		var e model.WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.Name, &e.SortOrder, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) UpsertWatchlistEntry(ctx context.Context, entry *model.WatchlistEntry) error {
	// Adding a symbol twice keeps the original entry (idempotent add).
	_, err := s.pool.Exec(ctx,
		`INSERT INTO watchlist (id, user_id, symbol, name, sort_order, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, symbol) DO NOTHING`,
		entry.ID, entry.UserID, entry.Symbol, entry.Name, entry.SortOrder, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert watchlist: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) DeleteWatchlistEntry(ctx context.Context, userID, symbol string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`, userID, symbol)
	if err != nil {
		return fmt.Errorf("%w: delete watchlist: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}
