package output

import (
	"context"
	"log/slog"

	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/pkg/typeset"
)

// MemoryModule is an output module that keeps the encoded payload in memory.
// It is used to inspect a build without writing a file.
type MemoryModule struct {
	payload []byte
	types   []typeset.Type
	err     error
	closed  bool
}

// NewMemory creates an in-memory output module.
func NewMemory() *MemoryModule {
	return &MemoryModule{}
}

// NewMemoryError creates an in-memory output module whose Send fails with err.
func NewMemoryError(err error) *MemoryModule {
	return &MemoryModule{err: err}
}

// Send encodes types and stores the result.
func (m *MemoryModule) Send(ctx context.Context, types []typeset.Type) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.err != nil {
		return 0, m.err
	}

	payload, err := EncodeCompact(types)
	if err != nil {
		return 0, err
	}
	m.payload = payload
	m.types = types

	logger.Debug("memory output stored payload",
		slog.Int("records", len(types)),
		slog.Int("bytes", len(payload)))
	return len(types), nil
}

// Payload returns the last encoded JSON payload.
func (m *MemoryModule) Payload() []byte { return m.payload }

// Types returns the last records sent.
func (m *MemoryModule) Types() []typeset.Type { return m.types }

// Closed reports whether Close was called.
func (m *MemoryModule) Closed() bool { return m.closed }

// EncodedBytes returns the payload size.
func (m *MemoryModule) EncodedBytes() int64 { return int64(len(m.payload)) }

// WrittenBytes returns the payload size; nothing is compressed.
func (m *MemoryModule) WrittenBytes() int64 { return int64(len(m.payload)) }

// Close marks the module closed.
func (m *MemoryModule) Close() error {
	m.closed = true
	return nil
}

// Verify MemoryModule implements Module and SizeReporter
var (
	_ Module       = (*MemoryModule)(nil)
	_ SizeReporter = (*MemoryModule)(nil)
)
