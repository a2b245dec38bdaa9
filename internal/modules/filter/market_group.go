package filter

import (
	"context"
	"log/slog"

	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/pkg/typeset"
)

// MarketGroupFilter keeps the entries that have a marketGroupID field.
// Only presence is tested: a null, zero or false value still selects the entry.
type MarketGroupFilter struct{}

// NewMarketGroupFilter creates the marketGroupID presence filter.
func NewMarketGroupFilter() *MarketGroupFilter {
	return &MarketGroupFilter{}
}

// Process returns the entries whose record has a marketGroupID field.
func (f *MarketGroupFilter) Process(ctx context.Context, entries []typeset.Entry) ([]typeset.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := make([]typeset.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Record.HasMarketGroupID {
			kept = append(kept, e)
		}
	}

	logger.Debug("market group filter applied",
		slog.Int("input_records", len(entries)),
		slog.Int("output_records", len(kept)),
		slog.Int("dropped_records", len(entries)-len(kept)),
	)
	return kept, nil
}

// Verify MarketGroupFilter implements Module
var _ Module = (*MarketGroupFilter)(nil)
