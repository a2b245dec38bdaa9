// Package filter provides implementations for filter modules.
// Filter modules select source entries; the projection turns the selected
// entries into output records.
package filter

import (
	"context"

	"github.com/canectors/typegen/pkg/typeset"
)

// Module represents a filter module that selects entries.
type Module interface {
	// Process returns the entries to keep, preserving their relative order.
	Process(ctx context.Context, entries []typeset.Entry) ([]typeset.Entry, error)
}
