package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/internal/schema"
	"github.com/canectors/typegen/pkg/typeset"
)

func TestFormatErrorLocation(t *testing.T) {
	tests := []struct {
		path string
		line int
		key  string
		want string
	}{
		{"", 0, "", ""},
		{"types.yaml", 0, "", "types.yaml"},
		{"types.yaml", 12, "", "types.yaml:12"},
		{"", 4, "10001", `line 4 key "10001"`},
		{"", 0, "abc", `key "abc"`},
	}
	for _, tt := range tests {
		if got := formatErrorLocation(tt.path, tt.line, tt.key); got != tt.want {
			t.Errorf("formatErrorLocation(%q, %d, %q) = %q, want %q", tt.path, tt.line, tt.key, got, tt.want)
		}
	}
}

func TestPrintBuildError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		verbose bool
		want    []string
	}{
		{
			name: "load error with line",
			err:  errhandling.NewLoadError("types.yaml", 3, errors.New("did not find expected key")),
			want: []string{"✗ Build failed: types.yaml:3: did not find expected key"},
		},
		{
			name:    "missing field verbose",
			err:     errhandling.NewMissingFieldError("10001", 7, "groupID"),
			verbose: true,
			want:    []string{`line 7 key "10001"`, "Category: shape", "Field: groupID"},
		},
		{
			name: "unclassified",
			err:  errors.New("boom"),
			want: []string{"✗ Build failed: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintBuildError(&buf, tt.err, tt.verbose)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q does not contain %q", buf.String(), w)
				}
			}
		})
	}
}

func TestPrintBuildResult(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := &typeset.BuildResult{
		RunID:           "run-1",
		Status:          typeset.StatusSuccess,
		OutputPath:      "types.json.gz",
		StartedAt:       started,
		CompletedAt:     started.Add(150 * time.Millisecond),
		RecordsRead:     3,
		RecordsSelected: 2,
		EncodedBytes:    2048,
		WrittenBytes:    300,
	}

	t.Run("verbose", func(t *testing.T) {
		var out, errOut bytes.Buffer
		PrintBuildResult(&out, &errOut, result, nil, OutputOptions{Verbose: true})
		for _, w := range []string{"✓ Wrote types.json.gz", "Records selected: 2", "JSON size: 2.0 KiB", "File size: 300 B", "Duration: 150ms"} {
			if !strings.Contains(out.String(), w) {
				t.Errorf("output %q does not contain %q", out.String(), w)
			}
		}
		if errOut.Len() != 0 {
			t.Errorf("unexpected stderr output %q", errOut.String())
		}
	})

	t.Run("quiet", func(t *testing.T) {
		var out, errOut bytes.Buffer
		PrintBuildResult(&out, &errOut, result, nil, OutputOptions{Quiet: true})
		if out.Len() != 0 || errOut.Len() != 0 {
			t.Errorf("quiet mode printed %q / %q", out.String(), errOut.String())
		}
	})

	t.Run("dry run", func(t *testing.T) {
		var out, errOut bytes.Buffer
		dry := *result
		dry.DryRun = true
		PrintBuildResult(&out, &errOut, &dry, nil, OutputOptions{})
		if !strings.Contains(out.String(), "nothing written") {
			t.Errorf("output %q does not mention dry run", out.String())
		}
	})

	t.Run("failure goes to stderr", func(t *testing.T) {
		var out, errOut bytes.Buffer
		PrintBuildResult(&out, &errOut, result, errhandling.NewWriteError("types.json.gz", errors.New("disk full")), OutputOptions{})
		if out.Len() != 0 {
			t.Errorf("unexpected stdout output %q", out.String())
		}
		if !strings.Contains(errOut.String(), "disk full") {
			t.Errorf("stderr %q does not contain the cause", errOut.String())
		}
	})
}

func TestPrintVerifyReport(t *testing.T) {
	var out, errOut bytes.Buffer
	PrintVerifyReport(&out, &errOut, &schema.Report{Path: "types.json.gz", Valid: true, Records: 4}, OutputOptions{})
	if !strings.Contains(out.String(), "Records: 4") {
		t.Errorf("output %q does not contain the record count", out.String())
	}

	out.Reset()
	bad := &schema.Report{
		Path:   "types.json.gz",
		Errors: []schema.ValidationError{{Path: "/0", Type: "required", Message: strings.Repeat("x", 100)}},
	}
	PrintVerifyReport(&out, &errOut, bad, OutputOptions{})
	if out.Len() != 0 {
		t.Errorf("unexpected stdout output %q", out.String())
	}
	if !strings.Contains(errOut.String(), "/0: "+strings.Repeat("x", 77)+"...") {
		t.Errorf("stderr %q does not contain the truncated error", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Hint:") {
		t.Errorf("stderr %q does not contain the hint", errOut.String())
	}
}
