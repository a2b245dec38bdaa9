package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec is a compression layer around the serialized payload.
type Codec interface {
	// Name identifies the codec in logs.
	Name() string
	// NewWriter wraps w. Closing the writer finalizes the stream but does
	// not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
	// NewReader wraps r for decompression.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Codec names
const (
	CodecGzip = "gzip"
	CodecZstd = "zstd"
)

// CodecForPath selects the codec from the file extension.
// ".zst" selects zstd; any other extension selects gzip.
func CodecForPath(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".zst") {
		return ZstdCodec{}
	}
	return GzipCodec{Level: gzip.BestCompression}
}

// GzipCodec writes gzip streams with an empty header (no name, zero mtime),
// so equal input gives equal bytes.
type GzipCodec struct {
	// Level is the compression level (gzip.BestCompression if zero).
	Level int
}

// Name returns "gzip".
func (GzipCodec) Name() string { return CodecGzip }

// NewWriter returns a gzip writer on w.
func (c GzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	level := c.Level
	if level == 0 {
		level = gzip.BestCompression
	}
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	return gw, nil
}

// NewReader returns a gzip reader on r.
func (GzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return gr, nil
}

// ZstdCodec writes single-threaded zstd frames.
type ZstdCodec struct{}

// Name returns "zstd".
func (ZstdCodec) Name() string { return CodecZstd }

// NewWriter returns a zstd encoder on w.
func (ZstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	return zw, nil
}

// NewReader returns a zstd decoder on r.
func (ZstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	return zr.IOReadCloser(), nil
}

// OpenReader opens a compressed file written by this package and returns
// the decompressed stream. Closing it closes the file.
func OpenReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := CodecForPath(path).NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileReader{ReadCloser: r, file: f}, nil
}

type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
