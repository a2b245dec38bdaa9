// Package typeset provides the public types produced and consumed by the
// typegen build pipeline. It is importable by projects that want to read
// the generated type list or drive a build programmatically.
package typeset

import "time"

// Entry is one record of the source document, in document order.
type Entry struct {
	// Key is the raw mapping key as written in the source document
	Key string

	// KeyTag is the resolved YAML tag of the key (e.g. "!!int", "!!str")
	KeyTag string

	// Line is the 1-based line of the key in the source document (0 if unknown)
	Line int

	// Record is the decoded record body
	Record SourceRecord
}

// SourceRecord is the typed view of a source record.
// Only the fields the build reads are decoded; everything else is ignored.
type SourceRecord struct {
	// Name is the value of the "name" field, copied verbatim
	Name any

	// GroupID is the value of the "groupID" field, copied verbatim
	GroupID any

	// HasName reports whether the record has a "name" field
	HasName bool

	// HasGroupID reports whether the record has a "groupID" field
	HasGroupID bool

	// HasMarketGroupID reports whether the record has a "marketGroupID" field.
	// The value itself is never decoded.
	HasMarketGroupID bool
}

// Type is one record of the generated type list.
// Field order is significant: it fixes the JSON key order.
type Type struct {
	// ID is the integer value of the source key
	ID int64 `json:"id"`

	// Name is copied verbatim from the source record
	Name any `json:"name"`

	// GroupID is copied verbatim from the source record
	GroupID any `json:"groupID"`
}

// Build status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BuildResult describes one build run.
type BuildResult struct {
	// RunID uniquely identifies the run in logs
	RunID string `json:"runId"`

	// Status is the run status ("success" or "error")
	Status string `json:"status"`

	// InputPath is the source document path
	InputPath string `json:"inputPath"`

	// OutputPath is the target file path
	OutputPath string `json:"outputPath"`

	// DryRun is true when the write stage was skipped
	DryRun bool `json:"dryRun,omitempty"`

	// StartedAt is when the run started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when the run ended
	CompletedAt time.Time `json:"completedAt"`

	// RecordsRead is the number of entries in the source document
	RecordsRead int `json:"recordsRead"`

	// RecordsSelected is the number of entries written to the output
	RecordsSelected int `json:"recordsSelected"`

	// EncodedBytes is the size of the uncompressed JSON
	EncodedBytes int64 `json:"encodedBytes"`

	// WrittenBytes is the size of the compressed file (0 in dry-run mode)
	WrittenBytes int64 `json:"writtenBytes"`

	// Error contains failure details when Status is "error"
	Error *BuildError `json:"error,omitempty"`
}

// BuildError contains details about a build failure.
type BuildError struct {
	// Category is the failure category ("load", "shape", "write", "unknown")
	Category string `json:"category"`

	// Stage is the pipeline stage that failed
	Stage string `json:"stage,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Key is the source key involved, if any
	Key string `json:"key,omitempty"`

	// Line is the source line involved, if known
	Line int `json:"line,omitempty"`
}
