package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sproutvest/trade-core/internal/model"
)

// Compile-time interface check.
var _ Store = (*CachedStore)(nil)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the hot display reads: account, positions, watchlist. Ledger
// transactions run against the primary and invalidate the affected user's
// cached reads after commit; order history is paginated and always read
// from the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) WithUserLedger(ctx context.Context, userID string, fn func(tx LedgerTx) error) error {
	if err := s.primary.WithUserLedger(ctx, userID, fn); err != nil {
		return err
	}
	// Committed: the user's cached account and positions are stale.
	s.rdb.Del(ctx, accountKey(userID), positionsKey(userID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	data, err := s.rdb.Get(ctx, accountKey(userID)).Bytes()
	if err == nil {
		var a model.Account
		if json.Unmarshal(data, &a) == nil {
			return &a, nil
		}
	}

	a, err := s.primary.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(a); err == nil {
		s.rdb.Set(ctx, accountKey(userID), data, s.ttl)
	}
	return a, nil
}

func (s *CachedStore) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	data, err := s.rdb.Get(ctx, positionsKey(userID)).Bytes()
	if err == nil {
		var positions []model.Position
		if json.Unmarshal(data, &positions) == nil {
			return positions, nil
		}
	}

	positions, err := s.primary.GetPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(positions); err == nil {
		s.rdb.Set(ctx, positionsKey(userID), data, s.ttl)
	}
	return positions, nil
}

func (s *CachedStore) ListWatchlist(ctx context.Context, userID string) ([]model.WatchlistEntry, error) {
	data, err := s.rdb.Get(ctx, watchlistKey(userID)).Bytes()
	if err == nil {
		var entries []model.WatchlistEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		s.rdb.Set(ctx, watchlistKey(userID), data, s.ttl)
	}
	return entries, nil
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) UpsertWatchlistEntry(ctx context.Context, entry *model.WatchlistEntry) error {
	if err := s.primary.UpsertWatchlistEntry(ctx, entry); err != nil {
		return err
	}
	s.rdb.Del(ctx, watchlistKey(entry.UserID))
	return nil
}

func (s *CachedStore) DeleteWatchlistEntry(ctx context.Context, userID, symbol string) error {
	if err := s.primary.DeleteWatchlistEntry(ctx, userID, symbol); err != nil {
		return err
	}
	s.rdb.Del(ctx, watchlistKey(userID))
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) GetPosition(ctx context.Context, userID, symbol string) (*model.Position, error) {
	return s.primary.GetPosition(ctx, userID, symbol)
}

func (s *CachedStore) GetOrders(ctx context.Context, userID string, page, pageSize int) ([]model.Order, int, error) {
	return s.primary.GetOrders(ctx, userID, page, pageSize)
}

func (s *CachedStore) CreateAccount(ctx context.Context, account *model.Account) error {
	return s.primary.CreateAccount(ctx, account)
}

func (s *CachedStore) InsertOrder(ctx context.Context, order *model.Order) error {
	return s.primary.InsertOrder(ctx, order)
}

// --- Cache keys ---

func accountKey(uid string) string   { return fmt.Sprintf("account:%s", uid) }
func positionsKey(uid string) string { return fmt.Sprintf("positions:%s", uid) }
func watchlistKey(uid string) string { return fmt.Sprintf("watchlist:%s", uid) }
