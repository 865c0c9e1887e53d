// Package quote defines the external quote source boundary: a read-only
// feed of last-traded prices per symbol. The core treats it as an injected
// dependency; implementations may poll a market-data vendor or serve
// fixed development data.
package quote

import (
	"context"

	"github.com/sproutvest/trade-core/internal/model"
)

// Source supplies last-traded price snapshots. GetQuote fails with
// ledger.ErrQuoteUnavailable for unknown symbols or an unreachable feed.
type Source interface {
	// GetQuote returns the latest snapshot for one symbol.
	GetQuote(ctx context.Context, symbol string) (*model.Quote, error)

	// GetBatch returns snapshots for up to MaxBatchSize symbols.
	// A symbol with no quote is omitted from the result, not an error;
	// callers that require completeness check the map themselves.
	GetBatch(ctx context.Context, symbols []string) (map[string]model.Quote, error)
}

// MaxBatchSize is the largest number of symbols per batch request.
const MaxBatchSize = 50
