// Package config holds the fixed locations and options of a build.
//
// The tool is not configurable from the outside: the command line always
// uses the defaults below. Options exists so that tests and programmatic
// callers can point a build at other files.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/canectors/typegen/internal/pathutil"
)

// Fixed build locations, relative to the working directory.
const (
	DefaultInputPath  = "types.yaml"
	DefaultOutputPath = "types.json.gz"
)

// FilterField is the field whose presence selects a record.
const FilterField = "marketGroupID"

// Common errors
var (
	// ErrEmptyInputPath is returned when no input path is set
	ErrEmptyInputPath = errors.New("input path is empty")

	// ErrEmptyOutputPath is returned when no output path is set
	ErrEmptyOutputPath = errors.New("output path is empty")

	// ErrSamePath is returned when input and output resolve to the same file
	ErrSamePath = errors.New("input and output paths refer to the same file")
)

// Options configures a single build.
type Options struct {
	// InputPath is the YAML source document
	InputPath string

	// OutputPath is the compressed JSON target
	OutputPath string

	// DryRun skips the write stage
	DryRun bool
}

// Default returns the options used by the command line.
func Default() Options {
	return Options{
		InputPath:  DefaultInputPath,
		OutputPath: DefaultOutputPath,
	}
}

// WithDefaults returns a copy of o with empty paths replaced by the defaults.
func (o Options) WithDefaults() Options {
	if strings.TrimSpace(o.InputPath) == "" {
		o.InputPath = DefaultInputPath
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		o.OutputPath = DefaultOutputPath
	}
	return o
}

// Validate checks that both paths are set, usable and distinct.
func (o Options) Validate() error {
	if strings.TrimSpace(o.InputPath) == "" {
		return ErrEmptyInputPath
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		return ErrEmptyOutputPath
	}
	if err := pathutil.ValidateFilePath(o.InputPath); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := pathutil.ValidateFilePath(o.OutputPath); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if pathutil.SameFile(o.InputPath, o.OutputPath) {
		return ErrSamePath
	}
	return nil
}
