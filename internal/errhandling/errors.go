// Package errhandling provides error types and classification for the build.
// Every failure of a run falls into one category: the source could not be
// loaded, a record did not have the expected shape, or the output could not
// be written.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory represents the category of a build error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryLoad covers a missing or unreadable source file, invalid YAML,
	// or a document that is not a mapping. Nothing is written.
	CategoryLoad ErrorCategory = "load"

	// CategoryShape covers a selected record lacking a required field, a key
	// that is not an integer, or a record body that is not a mapping.
	CategoryShape ErrorCategory = "shape"

	// CategoryWrite covers an unwritable target, a full disk, or a
	// compression stream error.
	CategoryWrite ErrorCategory = "write"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// Sentinel errors wrapped by ClassifiedError.OriginalErr.
var (
	// ErrEmptyDocument is returned when the source document has no content.
	ErrEmptyDocument = errors.New("empty document: expected a mapping of records")

	// ErrNotMapping is returned when the top-level value is not a mapping.
	ErrNotMapping = errors.New("top-level value is not a mapping")

	// ErrDuplicateKey is returned when a record key appears twice.
	ErrDuplicateKey = errors.New("duplicate record key")

	// ErrRecordNotMapping is returned when a record body is not a mapping.
	ErrRecordNotMapping = errors.New("record is not a mapping")

	// ErrInvalidKey is returned when a record key is not an integer.
	ErrInvalidKey = errors.New("record key is not an integer")

	// ErrMissingField is returned when a selected record lacks a required field.
	ErrMissingField = errors.New("missing required field")
)

// Exit codes reported by the command line for each category.
const (
	ExitSuccess      = 0
	ExitShapeError   = 1
	ExitLoadError    = 2
	ExitRuntimeError = 3
)

// ClassifiedError wraps an error with classification metadata and the
// location in the source document when one is known.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Path is the file involved (source for load, target for write).
	Path string

	// Key is the source record key (shape errors only).
	Key string

	// Line is the 1-based source line (0 if unknown).
	Line int

	// Field is the missing field name (ErrMissingField only).
	Field string

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Category))
	sb.WriteString(" error")
	if e.Path != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " (line %d)", e.Line)
	}
	if e.Key != "" {
		fmt.Fprintf(&sb, " at key %q", e.Key)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// NewLoadError creates a load error for the given source path.
func NewLoadError(path string, line int, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryLoad,
		Path:        path,
		Line:        line,
		Message:     messageOf(originalErr),
		OriginalErr: originalErr,
	}
}

// NewShapeError creates a shape error for the record at key.
func NewShapeError(key string, line int, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryShape,
		Key:         key,
		Line:        line,
		Message:     messageOf(originalErr),
		OriginalErr: originalErr,
	}
}

// NewMissingFieldError creates a shape error for a selected record that
// lacks field.
func NewMissingFieldError(key string, line int, field string) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryShape,
		Key:         key,
		Line:        line,
		Field:       field,
		Message:     fmt.Sprintf("%s %q", ErrMissingField.Error(), field),
		OriginalErr: ErrMissingField,
	}
}

// NewWriteError creates a write error for the given target path.
func NewWriteError(path string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryWrite,
		Path:        path,
		Message:     messageOf(originalErr),
		OriginalErr: originalErr,
	}
}

func messageOf(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// ClassifyError returns err as a ClassifiedError.
// Already classified errors are returned unchanged; context errors and
// anything else become CategoryUnknown.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{
			Category: CategoryUnknown,
			Message:  "nil error",
		}
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{
			Category:    CategoryUnknown,
			Message:     "build canceled",
			OriginalErr: err,
		}
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}

	return CategoryUnknown
}

// IsLoad reports whether err is a load error.
func IsLoad(err error) bool { return GetErrorCategory(err) == CategoryLoad }

// IsShape reports whether err is a shape error.
func IsShape(err error) bool { return GetErrorCategory(err) == CategoryShape }

// IsWrite reports whether err is a write error.
func IsWrite(err error) bool { return GetErrorCategory(err) == CategoryWrite }

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch GetErrorCategory(err) {
	case CategoryShape:
		return ExitShapeError
	case CategoryLoad:
		return ExitLoadError
	default:
		return ExitRuntimeError
	}
}
