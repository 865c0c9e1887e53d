package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
)

// Compile-time interface check.
var _ Source = (*StaticSource)(nil)

// StaticSource serves fixed quotes from memory. Used for development and
// testing when no market-data vendor is configured.
type StaticSource struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

// NewStaticSource creates a source seeded with the given quotes.
func NewStaticSource(quotes []model.Quote) *StaticSource {
	m := make(map[string]model.Quote, len(quotes))
	for _, q := range quotes {
		m[q.Symbol] = q
	}
	return &StaticSource{quotes: m}
}

// NewDevSource returns a StaticSource seeded with a handful of liquid
// A-share names for local development.
func NewDevSource() *StaticSource {
	now := time.Now()
	return NewStaticSource([]model.Quote{
		{Symbol: "600519", Name: "贵州茅台", Price: dec("1850.00"), PrevClose: dec("1824.50"), Timestamp: now},
		{Symbol: "000858", Name: "五粮液", Price: dec("155.20"), PrevClose: dec("157.50"), Timestamp: now},
		{Symbol: "300750", Name: "宁德时代", Price: dec("185.50"), PrevClose: dec("177.30"), Timestamp: now},
		{Symbol: "600036", Name: "招商银行", Price: dec("32.50"), PrevClose: dec("31.70"), Timestamp: now},
	})
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// SetQuote inserts or replaces a quote. Test seam.
func (s *StaticSource) SetQuote(q model.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Symbol] = q
}

func (s *StaticSource) GetQuote(_ context.Context, symbol string) (*model.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrQuoteUnavailable, symbol)
	}
	q.Timestamp = time.Now()
	return &q, nil
}

func (s *StaticSource) GetBatch(_ context.Context, symbols []string) (map[string]model.Quote, error) {
	if len(symbols) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit %d",
			ledger.ErrQuoteUnavailable, len(symbols), MaxBatchSize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	result := make(map[string]model.Quote, len(symbols))
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			q.Timestamp = now
			result[sym] = q
		}
	}
	return result, nil
}
