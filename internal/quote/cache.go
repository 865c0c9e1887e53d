package quote

import (
	"context"
	"sync"
	"time"

	"github.com/sproutvest/trade-core/internal/model"
)

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// CachedSource wraps a Source with a per-symbol TTL cache. Reads within
// the TTL are served from memory; stale entries fall through to the
// underlying source. The stated staleness tolerance of the feed is the
// TTL itself — display reads may lag the market by up to one TTL.
type CachedSource struct {
	source Source
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote  model.Quote
	expiry time.Time
}

// NewCachedSource creates a TTL cache around a source.
func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		ttl:    ttl,
		cache:  make(map[string]cachedQuote),
	}
}

func (c *CachedSource) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	c.mu.RLock()
	entry, ok := c.cache[symbol]
	c.mu.RUnlock()

	if ok && time.Now().Before(entry.expiry) {
		q := entry.quote
		return &q, nil
	}

	q, err := c.source.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: *q, expiry: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return q, nil
}

func (c *CachedSource) GetBatch(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	result := make(map[string]model.Quote, len(symbols))
	var misses []string

	now := time.Now()
	c.mu.RLock()
	for _, sym := range symbols {
		if entry, ok := c.cache[sym]; ok && now.Before(entry.expiry) {
			result[sym] = entry.quote
		} else {
			misses = append(misses, sym)
		}
	}
	c.mu.RUnlock()

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.source.GetBatch(ctx, misses)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(c.ttl)
	c.mu.Lock()
	for sym, q := range fetched {
		c.cache[sym] = cachedQuote{quote: q, expiry: expiry}
		result[sym] = q
	}
	c.mu.Unlock()

	return result, nil
}
