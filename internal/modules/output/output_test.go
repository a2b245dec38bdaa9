package output

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/pkg/typeset"
)

func TestEncodeCompact(t *testing.T) {
	tests := []struct {
		name  string
		types []typeset.Type
		want  string
	}{
		{name: "nil", types: nil, want: `[]`},
		{name: "empty", types: []typeset.Type{}, want: `[]`},
		{
			name:  "single record",
			types: []typeset.Type{{ID: 10001, Name: "Widget", GroupID: 5}},
			want:  `[{"id":10001,"name":"Widget","groupID":5}]`,
		},
		{
			name:  "non-ASCII and HTML characters are not escaped",
			types: []typeset.Type{{ID: 1, Name: "Ünïcödé <b>&</b> 日本", GroupID: nil}},
			want:  `[{"id":1,"name":"Ünïcödé <b>&</b> 日本","groupID":null}]`,
		},
		{
			name:  "nested values keep their structure",
			types: []typeset.Type{{ID: 2, Name: map[string]any{"en": "A", "de": "B"}, GroupID: []any{1, "x", true}}},
			want:  `[{"id":2,"name":{"de":"B","en":"A"},"groupID":[1,"x",true]}]`,
		},
		{
			name:  "integral floats",
			types: []typeset.Type{{ID: 3, Name: "F", GroupID: 5.0}},
			want:  `[{"id":3,"name":"F","groupID":5}]`,
		},
		{
			name:  "line separators are escaped",
			types: []typeset.Type{{ID: 4, Name: "a\u2028b", GroupID: 1}},
			want:  `[{"id":4,"name":"a\u2028b","groupID":1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeCompact(tt.types)
			if err != nil {
				t.Fatalf("EncodeCompact() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeCompact() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeCompact_UnencodableValue(t *testing.T) {
	_, err := EncodeCompact([]typeset.Type{{ID: 1, Name: "x", GroupID: math.NaN()}})
	if !errhandling.IsShape(err) {
		t.Errorf("EncodeCompact() error = %v, want shape error", err)
	}
}

func readCompressed(t *testing.T, path string) string {
	t.Helper()
	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

var sample = []typeset.Type{
	{ID: 10001, Name: "Widget", GroupID: 5},
	{ID: 10003, Name: "Gizmo", GroupID: 7},
}

const sampleJSON = `[{"id":10001,"name":"Widget","groupID":5},{"id":10003,"name":"Gizmo","groupID":7}]`

func TestCompressedFile_RoundTrip(t *testing.T) {
	for _, name := range []string{"types.json.gz", "types.json.zst", filepath.Join("nested", "dir", "types.json.gz")} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			out := NewCompressedFile(path)

			n, err := out.Send(context.Background(), sample)
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if n != len(sample) {
				t.Errorf("Send() = %d, want %d", n, len(sample))
			}
			if err := out.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}

			if got := readCompressed(t, path); got != sampleJSON {
				t.Errorf("content = %s, want %s", got, sampleJSON)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != outputFileMode {
				t.Errorf("mode = %v, want %v", info.Mode().Perm(), outputFileMode)
			}
			if out.EncodedBytes() != int64(len(sampleJSON)) {
				t.Errorf("EncodedBytes() = %d, want %d", out.EncodedBytes(), len(sampleJSON))
			}
			if out.WrittenBytes() != info.Size() {
				t.Errorf("WrittenBytes() = %d, want %d", out.WrittenBytes(), info.Size())
			}
		})
	}
}

func TestCompressedFile_GzipHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json.gz")
	if _, err := NewCompressedFile(path).Send(context.Background(), sample); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	defer zr.Close()
	if !zr.ModTime.IsZero() || zr.Name != "" {
		t.Errorf("header = {ModTime: %v, Name: %q}, want empty", zr.ModTime, zr.Name)
	}
}

func TestCompressedFile_Deterministic(t *testing.T) {
	for _, ext := range []string{".gz", ".zst"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			var files [][]byte
			for _, name := range []string{"a.json" + ext, "b.json" + ext} {
				path := filepath.Join(dir, name)
				if _, err := NewCompressedFile(path).Send(context.Background(), sample); err != nil {
					t.Fatalf("Send() error = %v", err)
				}
				data, err := os.ReadFile(path)
				if err != nil {
					t.Fatal(err)
				}
				files = append(files, data)
			}
			if !bytes.Equal(files[0], files[1]) {
				t.Error("equal input produced different bytes")
			}
		})
	}
}

func TestCompressedFile_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json.gz")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCompressedFile(path).Send(context.Background(), sample); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := readCompressed(t, path); got != sampleJSON {
		t.Errorf("content = %s, want %s", got, sampleJSON)
	}
}

// failingCodec produces writers that fail on Write.
type failingCodec struct{ GzipCodec }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }
func (failingWriter) Close() error              { return nil }

func (failingCodec) NewWriter(io.Writer) (io.WriteCloser, error) { return failingWriter{}, nil }

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCompressedFile_FailureLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.json.gz")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewCompressedFileWithCodec(path, failingCodec{}).Send(context.Background(), sample)
	if !errhandling.IsWrite(err) {
		t.Fatalf("Send() error = %v, want write error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "old" {
		t.Errorf("target = %q, %v; want untouched", data, err)
	}
	if names := dirEntries(t, dir); len(names) != 1 {
		t.Errorf("temporary files left behind: %v", names)
	}
}

func TestCompressedFile_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.json.gz")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := NewCompressedFile(path).Send(context.Background(), sample)
	if !errhandling.IsWrite(err) {
		t.Fatalf("Send() error = %v, want write error", err)
	}
	if names := dirEntries(t, dir); len(names) != 1 {
		t.Errorf("temporary files left behind: %v", names)
	}
}

func TestCompressedFile_EncodeErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.json.gz")

	_, err := NewCompressedFile(path).Send(context.Background(), []typeset.Type{{ID: 1, GroupID: math.Inf(1)}})
	if !errhandling.IsShape(err) {
		t.Fatalf("Send() error = %v, want shape error", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("files created: %v", names)
	}
}

func TestCompressedFile_Canceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCompressedFile(filepath.Join(dir, "types.json.gz")).Send(ctx, sample)
	if !errhandling.IsWrite(err) || !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want canceled write error", err)
	}
}

func TestCodecForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"types.json.gz", CodecGzip},
		{"types.json.zst", CodecZstd},
		{"TYPES.JSON.ZST", CodecZstd},
		{"types.json", CodecGzip},
	}
	for _, tt := range tests {
		if got := CodecForPath(tt.path).Name(); got != tt.want {
			t.Errorf("CodecForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestMemoryModule(t *testing.T) {
	m := NewMemory()
	if _, err := m.Send(context.Background(), sample); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(m.Payload()) != sampleJSON {
		t.Errorf("Payload() = %s", m.Payload())
	}
	if len(m.Types()) != 2 || m.EncodedBytes() != int64(len(sampleJSON)) {
		t.Errorf("Types()/EncodedBytes() = %d/%d", len(m.Types()), m.EncodedBytes())
	}
	_ = m.Close()
	if !m.Closed() {
		t.Error("Closed() = false after Close")
	}

	boom := errors.New("boom")
	if _, err := NewMemoryError(boom).Send(context.Background(), sample); !errors.Is(err, boom) {
		t.Errorf("Send() error = %v, want %v", err, boom)
	}
}
