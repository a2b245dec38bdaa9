// Package errhandling provides error types and classification for the build.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

// TestErrorCategory tests error category constants and their string values.
func TestErrorCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{CategoryLoad, "load"},
		{CategoryShape, "shape"},
		{CategoryWrite, "write"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.category) != tt.expected {
				t.Errorf("ErrorCategory = %v, want %v", tt.category, tt.expected)
			}
		})
	}
}

func TestClassifiedError(t *testing.T) {
	t.Run("Error message includes location", func(t *testing.T) {
		err := NewShapeError("abc", 12, ErrInvalidKey)
		got := err.Error()
		for _, want := range []string{"shape", "line 12", `"abc"`, ErrInvalidKey.Error()} {
			if !strings.Contains(got, want) {
				t.Errorf("Error() = %q, want to contain %q", got, want)
			}
		}
	})

	t.Run("Error message includes path", func(t *testing.T) {
		err := NewLoadError("types.yaml", 0, os.ErrNotExist)
		got := err.Error()
		if !strings.Contains(got, "load error in types.yaml") {
			t.Errorf("Error() = %q, want path prefix", got)
		}
		if strings.Contains(got, "line") {
			t.Errorf("Error() = %q, should omit unknown line", got)
		}
	})

	t.Run("Unwrap returns original error", func(t *testing.T) {
		err := NewWriteError("out.json.gz", os.ErrPermission)
		if !errors.Is(err, os.ErrPermission) {
			t.Error("errors.Is should find the original error")
		}
	})

	t.Run("Missing field", func(t *testing.T) {
		err := NewMissingFieldError("10001", 3, "groupID")
		if !errors.Is(err, ErrMissingField) {
			t.Error("missing field error should wrap ErrMissingField")
		}
		if err.Field != "groupID" {
			t.Errorf("Field = %q, want groupID", err.Field)
		}
		if !strings.Contains(err.Error(), `"groupID"`) {
			t.Errorf("Error() = %q, want to name the field", err.Error())
		}
	})
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryUnknown},
		{"plain", errors.New("boom"), CategoryUnknown},
		{"load", NewLoadError("a", 0, ErrNotMapping), CategoryLoad},
		{"shape", NewShapeError("k", 0, ErrInvalidKey), CategoryShape},
		{"write", NewWriteError("b", errors.New("disk full")), CategoryWrite},
		{"wrapped", fmt.Errorf("stage: %w", NewWriteError("b", errors.New("x"))), CategoryWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCategory(tt.err); got != tt.want {
				t.Errorf("GetErrorCategory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryPredicates(t *testing.T) {
	load := NewLoadError("a", 0, ErrEmptyDocument)
	shape := NewShapeError("k", 0, ErrRecordNotMapping)
	write := NewWriteError("b", errors.New("x"))

	if !IsLoad(load) || IsShape(load) || IsWrite(load) {
		t.Error("load error misclassified")
	}
	if !IsShape(shape) || IsLoad(shape) || IsWrite(shape) {
		t.Error("shape error misclassified")
	}
	if !IsWrite(write) || IsLoad(write) || IsShape(write) {
		t.Error("write error misclassified")
	}
}

func TestClassifyError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if got := ClassifyError(nil); got.Category != CategoryUnknown {
			t.Errorf("Category = %v, want unknown", got.Category)
		}
	})

	t.Run("already classified", func(t *testing.T) {
		orig := NewShapeError("k", 1, ErrInvalidKey)
		if got := ClassifyError(fmt.Errorf("wrap: %w", orig)); got != orig {
			t.Error("ClassifyError should return the wrapped classified error")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		got := ClassifyError(context.Canceled)
		if got.Message != "build canceled" {
			t.Errorf("Message = %q, want build canceled", got.Message)
		}
		if !errors.Is(got, context.Canceled) {
			t.Error("classified error should unwrap to context.Canceled")
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"shape", NewShapeError("k", 0, ErrInvalidKey), ExitShapeError},
		{"load", NewLoadError("a", 0, ErrNotMapping), ExitLoadError},
		{"write", NewWriteError("b", errors.New("x")), ExitRuntimeError},
		{"unknown", errors.New("x"), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
