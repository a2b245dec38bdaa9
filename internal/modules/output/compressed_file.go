package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/pkg/typeset"
)

// outputFileMode is the permission of the written file.
const outputFileMode os.FileMode = 0o644

// CompressedFile writes the type list as compressed JSON to a file.
//
// The payload is encoded before any file is touched. It is then streamed
// through the codec into a temporary file in the target directory, which
// replaces the target only after the codec and the file are closed. On any
// failure the temporary file is removed and the target is left as it was.
type CompressedFile struct {
	path         string
	codec        Codec
	encodedBytes int64
	writtenBytes int64
}

// NewCompressedFile creates an output module writing to path, with the
// codec selected by CodecForPath.
func NewCompressedFile(path string) *CompressedFile {
	return NewCompressedFileWithCodec(path, CodecForPath(path))
}

// NewCompressedFileWithCodec creates an output module with an explicit codec.
func NewCompressedFileWithCodec(path string, codec Codec) *CompressedFile {
	return &CompressedFile{path: path, codec: codec}
}

// Path returns the target path.
func (m *CompressedFile) Path() string {
	return m.path
}

// Send encodes types and writes them to the target file.
func (m *CompressedFile) Send(ctx context.Context, types []typeset.Type) (int, error) {
	data, err := EncodeCompact(types)
	if err != nil {
		return 0, err
	}
	m.encodedBytes = int64(len(data))

	if err := ctx.Err(); err != nil {
		return 0, errhandling.NewWriteError(m.path, err)
	}

	startTime := time.Now()
	written, err := m.writeFile(data)
	if err != nil {
		return 0, errhandling.NewWriteError(m.path, err)
	}
	m.writtenBytes = written

	logger.Debug("compressed file written",
		slog.String("path", m.path),
		slog.String("codec", m.codec.Name()),
		slog.Int64("encoded_bytes", m.encodedBytes),
		slog.Int64("written_bytes", m.writtenBytes),
		slog.Duration("duration", time.Since(startTime)),
	)
	return len(types), nil
}

// EncodedBytes returns the size of the last encoded payload.
func (m *CompressedFile) EncodedBytes() int64 { return m.encodedBytes }

// WrittenBytes returns the size of the last written file.
func (m *CompressedFile) WrittenBytes() int64 { return m.writtenBytes }

// Close releases resources. Files are closed by Send.
func (m *CompressedFile) Close() error {
	return nil
}

// writeFile streams data through the codec into a temporary file and
// renames it over the target.
func (m *CompressedFile) writeFile(data []byte) (written int64, err error) {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	fileClosed := false
	defer func() {
		if err == nil {
			return
		}
		if !fileClosed {
			_ = tmp.Close()
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("failed to remove temporary file",
				slog.String("path", tmpPath),
				slog.String("error", rmErr.Error()))
		}
	}()

	counter := &countingWriter{w: tmp}
	zw, err := m.codec.NewWriter(counter)
	if err != nil {
		return 0, err
	}
	if _, err = zw.Write(data); err != nil {
		_ = zw.Close()
		return 0, fmt.Errorf("failed to write %s stream: %w", m.codec.Name(), err)
	}
	if err = zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize %s stream: %w", m.codec.Name(), err)
	}

	if err = tmp.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync file: %w", err)
	}
	fileClosed = true
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close file: %w", err)
	}
	if err = os.Chmod(tmpPath, outputFileMode); err != nil {
		return 0, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = os.Rename(tmpPath, m.path); err != nil {
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Verify CompressedFile implements Module and SizeReporter
var (
	_ Module       = (*CompressedFile)(nil)
	_ SizeReporter = (*CompressedFile)(nil)
)
