package input

import (
	"context"
	"log/slog"

	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/pkg/typeset"
)

// StaticModule is an input module serving entries held in memory.
// It is used to drive a build without a source file.
type StaticModule struct {
	entries []typeset.Entry
	err     error
}

// NewStatic creates an input module that returns entries.
func NewStatic(entries []typeset.Entry) *StaticModule {
	return &StaticModule{entries: entries}
}

// NewStaticError creates an input module whose Fetch fails with err.
func NewStaticError(err error) *StaticModule {
	return &StaticModule{err: err}
}

// Fetch returns the entries given at construction.
func (m *StaticModule) Fetch(ctx context.Context) ([]typeset.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	logger.Debug("static input serving entries",
		slog.Int("entries", len(m.entries)))

	out := make([]typeset.Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Close releases resources (no-op for static input).
func (m *StaticModule) Close() error {
	return nil
}

// Verify StaticModule implements Module
var _ Module = (*StaticModule)(nil)
