package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
//
// Ledger transactions stage their writes on the transaction and apply
// them under the store lock only when fn succeeds, so a failed fn leaves
// no trace. Per-user mutexes serialize same-user transactions without
// blocking other users.
type MemoryStore struct {
	mu        sync.RWMutex
	accounts  map[string]*model.Account
	positions map[string]map[string]*model.Position // userID → symbol → position
	orders    map[string][]model.Order              // userID → chronological
	watchlist map[string]map[string]*model.WatchlistEntry

	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]*model.Account),
		positions: make(map[string]map[string]*model.Position),
		orders:    make(map[string][]model.Order),
		watchlist: make(map[string]map[string]*model.WatchlistEntry),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing one user's ledger transactions.
func (s *MemoryStore) userLock(userID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

func (s *MemoryStore) WithUserLedger(ctx context.Context, userID string, fn func(tx LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrStoreUnavailable, err)
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	tx := &memTx{
		store:      s,
		userID:     userID,
		posUpserts: make(map[string]*model.Position),
		posDeletes: make(map[string]bool),
	}

	if err := fn(tx); err != nil {
		return err // staged writes discarded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.account != nil {
		copied := *tx.account
		s.accounts[userID] = &copied
	}
	userPos, ok := s.positions[userID]
	if !ok {
		userPos = make(map[string]*model.Position)
		s.positions[userID] = userPos
	}
	for sym, p := range tx.posUpserts {
		copied := *p
		userPos[sym] = &copied
	}
	for sym := range tx.posDeletes {
		delete(userPos, sym)
	}
	s.orders[userID] = append(s.orders[userID], tx.newOrders...)

	return nil
}

// memTx stages one user's ledger writes until commit.
type memTx struct {
	store      *MemoryStore
	userID     string
	account    *model.Account // staged; nil until loaded or written
	posUpserts map[string]*model.Position
	posDeletes map[string]bool
	newOrders  []model.Order
}

func (tx *memTx) loadAccount() (*model.Account, error) {
	if tx.account != nil {
		return tx.account, nil
	}
	tx.store.mu.RLock()
	a, ok := tx.store.accounts[tx.userID]
	tx.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: account %s", ledger.ErrNotFound, tx.userID)
	}
	copied := *a
	tx.account = &copied
	return tx.account, nil
}

func (tx *memTx) Account() (*model.Account, error) {
	a, err := tx.loadAccount()
	if err != nil {
		return nil, err
	}
	copied := *a
	return &copied, nil
}

func (tx *memTx) Position(symbol string) (*model.Position, error) {
	if tx.posDeletes[symbol] {
		return nil, nil
	}
	if p, ok := tx.posUpserts[symbol]; ok {
		copied := *p
		return &copied, nil
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	p, ok := tx.store.positions[tx.userID][symbol]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (tx *memTx) SetAccountCash(cash decimal.Decimal) error {
	a, err := tx.loadAccount()
	if err != nil {
		return err
	}
	a.Cash = cash
	a.UpdatedAt = time.Now()
	return nil
}

func (tx *memTx) UpsertPosition(p *model.Position) error {
	copied := *p
	copied.UserID = tx.userID
	tx.posUpserts[p.Symbol] = &copied
	delete(tx.posDeletes, p.Symbol)
	return nil
}

func (tx *memTx) DeletePosition(symbol string) error {
	tx.posDeletes[symbol] = true
	delete(tx.posUpserts, symbol)
	return nil
}

func (tx *memTx) InsertOrder(o *model.Order) error {
	copied := *o
	copied.UserID = tx.userID
	tx.newOrders = append(tx.newOrders, copied)
	return nil
}

// --- Read-only queries ---

func (s *MemoryStore) GetAccount(_ context.Context, userID string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", ledger.ErrNotFound, userID)
	}
	copied := *a
	return &copied, nil
}

func (s *MemoryStore) GetPositions(_ context.Context, userID string) ([]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userPos := s.positions[userID]
	positions := make([]model.Position, 0, len(userPos))
	for _, p := range userPos {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions, nil
}

func (s *MemoryStore) GetPosition(_ context.Context, userID, symbol string) (*model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[userID][symbol]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *MemoryStore) GetOrders(_ context.Context, userID string, page, pageSize int) ([]model.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.orders[userID]
	total := len(all)

	// Newest first.
	start := total - page*pageSize
	end := start + pageSize
	if end <= 0 {
		return []model.Order{}, total, nil
	}
	if start < 0 {
		start = 0
	}

	result := make([]model.Order, 0, end-start)
	for i := end - 1; i >= start; i-- {
		result = append(result, all[i])
	}
	return result, total, nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.UserID]; ok {
		return fmt.Errorf("account %s already exists", account.UserID)
	}
	copied := *account
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = time.Now()
	}
	s.accounts[account.UserID] = &copied
	return nil
}

func (s *MemoryStore) InsertOrder(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.UserID] = append(s.orders[order.UserID], *order)
	return nil
}

// --- Watchlist ---

func (s *MemoryStore) ListWatchlist(_ context.Context, userID string) ([]model.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userWl := s.watchlist[userID]
	entries := make([]model.WatchlistEntry, 0, len(userWl))
	for _, e := range userWl {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SortOrder != entries[j].SortOrder {
			return entries[i].SortOrder < entries[j].SortOrder
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *MemoryStore) UpsertWatchlistEntry(_ context.Context, entry *model.WatchlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userWl, ok := s.watchlist[entry.UserID]
	if !ok {
		userWl = make(map[string]*model.WatchlistEntry)
		s.watchlist[entry.UserID] = userWl
	}
	if _, exists := userWl[entry.Symbol]; exists {
		return nil // already present: no-op success
	}
	copied := *entry
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	userWl[entry.Symbol] = &copied
	return nil
}

func (s *MemoryStore) DeleteWatchlistEntry(_ context.Context, userID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.watchlist[userID], symbol)
	return nil
}
