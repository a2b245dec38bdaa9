// Package runtime provides the build execution engine.
// It runs the stages in order: Load -> Filter -> Project -> Write.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/canectors/typegen/internal/config"
	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/internal/modules/filter"
	"github.com/canectors/typegen/internal/modules/input"
	"github.com/canectors/typegen/internal/modules/output"
	"github.com/canectors/typegen/pkg/typeset"
)

// Stage names used in logs and build errors
const (
	StageLoad    = "load"
	StageFilter  = "filter"
	StageProject = "project"
	StageWrite   = "write"
)

// Common errors
var (
	// ErrNilInputModule is returned when input module is nil
	ErrNilInputModule = errors.New("input module is nil")

	// ErrNilOutputModule is returned when output module is nil
	ErrNilOutputModule = errors.New("output module is nil")
)

// Executor runs one build.
//
// The Executor only talks to modules through their interfaces. The input
// module is closed as soon as loading ends, the output module when Execute
// returns, whatever the outcome.
type Executor struct {
	inputModule   input.Module
	filterModules []filter.Module
	outputModule  output.Module
	dryRun        bool

	inputPath  string
	outputPath string
	newRunID   func() string
}

// NewExecutorWithModules creates an executor with all modules configured.
//
// Parameters:
//   - inputModule: loads the source entries
//   - filterModules: selection filters applied in order (can be nil)
//   - outputModule: writes the projected records (can be nil in dry-run mode)
//   - dryRun: if true, skips the output module
func NewExecutorWithModules(
	inputModule input.Module,
	filterModules []filter.Module,
	outputModule output.Module,
	dryRun bool,
) *Executor {
	return &Executor{
		inputModule:   inputModule,
		filterModules: filterModules,
		outputModule:  outputModule,
		dryRun:        dryRun,
		newRunID:      uuid.NewString,
	}
}

// NewDefaultExecutor wires the standard modules for opts: the YAML source,
// the marketGroupID filter and the compressed file writer.
func NewDefaultExecutor(opts config.Options) *Executor {
	return NewExecutorWithModules(
		input.NewYAMLFile(opts.InputPath),
		[]filter.Module{filter.NewMarketGroupFilter()},
		output.NewCompressedFile(opts.OutputPath),
		opts.DryRun,
	).WithPaths(opts.InputPath, opts.OutputPath)
}

// WithPaths records the source and target paths for logs and the result.
func (e *Executor) WithPaths(inputPath, outputPath string) *Executor {
	e.inputPath = inputPath
	e.outputPath = outputPath
	return e
}

// WithRunIDFunc overrides run id generation.
func (e *Executor) WithRunIDFunc(fn func() string) *Executor {
	if fn != nil {
		e.newRunID = fn
	}
	return e
}

// Build runs the standard build described by opts.
// Empty paths fall back to the defaults in package config.
func Build(ctx context.Context, opts config.Options) (*typeset.BuildResult, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build options: %w", err)
	}
	return NewDefaultExecutor(opts).Execute(ctx)
}

// Execute runs the build.
//
// Execution flow:
//  1. Load entries from the input module, then close it
//  2. Apply the filter modules in order
//  3. Project the kept entries to output records
//  4. Send the records to the output module (skipped in dry-run mode)
//
// The returned result is never nil. On failure the error is an
// *errhandling.ClassifiedError and result.Error describes it.
func (e *Executor) Execute(ctx context.Context) (*typeset.BuildResult, error) {
	startedAt := time.Now()
	result := &typeset.BuildResult{
		RunID:      e.newRunID(),
		Status:     typeset.StatusError,
		InputPath:  e.inputPath,
		OutputPath: e.outputPath,
		DryRun:     e.dryRun,
		StartedAt:  startedAt,
	}
	execCtx := logger.ExecutionContext{
		RunID:      result.RunID,
		InputPath:  e.inputPath,
		OutputPath: e.outputPath,
		DryRun:     e.dryRun,
	}

	if err := e.validateModules(); err != nil {
		return e.fail(result, execCtx, "", errhandling.ClassifyError(err))
	}

	logger.LogExecutionStart(execCtx)

	if e.outputModule != nil {
		defer e.closeModule(result.RunID, "output", e.outputModule)
	}

	entries, err := e.executeLoad(ctx, execCtx)
	e.closeModule(result.RunID, "input", e.inputModule)
	if err != nil {
		return e.fail(result, execCtx, StageLoad, err)
	}
	result.RecordsRead = len(entries)

	kept, err := e.executeFilters(ctx, execCtx, entries)
	if err != nil {
		return e.fail(result, execCtx, StageFilter, err)
	}

	types, err := e.executeProject(ctx, execCtx, kept)
	if err != nil {
		return e.fail(result, execCtx, StageProject, err)
	}
	result.RecordsSelected = len(types)

	if err := e.executeWrite(ctx, execCtx, types, result); err != nil {
		return e.fail(result, execCtx, StageWrite, err)
	}

	result.Status = typeset.StatusSuccess
	result.CompletedAt = time.Now()
	logger.LogExecutionEnd(execCtx, typeset.StatusSuccess, result.RecordsSelected, result.CompletedAt.Sub(startedAt))
	return result, nil
}

func (e *Executor) validateModules() error {
	if e.inputModule == nil {
		return ErrNilInputModule
	}
	if e.outputModule == nil && !e.dryRun {
		return ErrNilOutputModule
	}
	return nil
}

func (e *Executor) executeLoad(ctx context.Context, execCtx logger.ExecutionContext) ([]typeset.Entry, error) {
	execCtx.Stage = StageLoad
	logger.LogStageStart(execCtx)

	startTime := time.Now()
	entries, err := e.inputModule.Fetch(ctx)
	duration := time.Since(startTime)
	if err != nil {
		err = classifyStageError(StageLoad, e.inputPath, err)
		logger.LogStageEnd(execCtx, 0, duration, err)
		return nil, err
	}

	logger.LogStageEnd(execCtx, len(entries), duration, nil)
	return entries, nil
}

func (e *Executor) executeFilters(ctx context.Context, execCtx logger.ExecutionContext, entries []typeset.Entry) ([]typeset.Entry, error) {
	execCtx.Stage = StageFilter
	logger.LogStageStart(execCtx)

	startTime := time.Now()
	current := entries
	for i, f := range e.filterModules {
		if f == nil {
			logger.Warn("nil filter module encountered; skipping",
				slog.String("run_id", execCtx.RunID),
				slog.Int("filter_index", i),
			)
			continue
		}

		next, err := f.Process(ctx, current)
		if err != nil {
			err = classifyStageError(StageFilter, "", fmt.Errorf("filter module %d: %w", i, err))
			logger.LogStageEnd(execCtx, len(current), time.Since(startTime), err)
			return nil, err
		}
		current = next
	}

	logger.LogStageEnd(execCtx, len(current), time.Since(startTime), nil)
	return current, nil
}

func (e *Executor) executeProject(ctx context.Context, execCtx logger.ExecutionContext, entries []typeset.Entry) ([]typeset.Type, error) {
	execCtx.Stage = StageProject
	logger.LogStageStart(execCtx)

	startTime := time.Now()
	types, err := filter.Project(ctx, entries)
	if err != nil {
		err = classifyStageError(StageProject, "", err)
		logger.LogStageEnd(execCtx, 0, time.Since(startTime), err)
		return nil, err
	}

	logger.LogStageEnd(execCtx, len(types), time.Since(startTime), nil)
	return types, nil
}

func (e *Executor) executeWrite(ctx context.Context, execCtx logger.ExecutionContext, types []typeset.Type, result *typeset.BuildResult) error {
	execCtx.Stage = StageWrite
	logger.LogStageStart(execCtx)
	startTime := time.Now()

	if e.dryRun {
		// Encode anyway so values that cannot be serialized still fail.
		payload, err := output.EncodeCompact(types)
		if err != nil {
			logger.LogStageEnd(execCtx, 0, time.Since(startTime), err)
			return err
		}
		result.EncodedBytes = int64(len(payload))
		logger.Debug("dry-run mode: skipping output module",
			slog.String("run_id", execCtx.RunID),
			slog.Int("records_would_write", len(types)),
			slog.Int64("encoded_bytes", result.EncodedBytes),
		)
		logger.LogStageEnd(execCtx, len(types), time.Since(startTime), nil)
		return nil
	}

	sent, err := e.outputModule.Send(ctx, types)
	if sizes, ok := e.outputModule.(output.SizeReporter); ok {
		result.EncodedBytes = sizes.EncodedBytes()
		if err == nil {
			result.WrittenBytes = sizes.WrittenBytes()
		}
	}
	if err != nil {
		err = classifyStageError(StageWrite, e.outputPath, err)
		logger.LogStageEnd(execCtx, 0, time.Since(startTime), err)
		return err
	}

	logger.LogStageEnd(execCtx, sent, time.Since(startTime), nil)
	return nil
}

// classifyStageError attaches the stage's category to errors that modules
// returned unclassified. Cancellation observed while loading or writing is
// a failure of that stage.
func classifyStageError(stage, path string, err error) error {
	var classified *errhandling.ClassifiedError
	if errors.As(err, &classified) {
		return err
	}
	switch stage {
	case StageLoad:
		return errhandling.NewLoadError(path, 0, err)
	case StageWrite:
		return errhandling.NewWriteError(path, err)
	default:
		return errhandling.ClassifyError(err)
	}
}

// fail finalizes result for a failed build and logs it.
func (e *Executor) fail(result *typeset.BuildResult, execCtx logger.ExecutionContext, stage string, err error) (*typeset.BuildResult, error) {
	classified := errhandling.ClassifyError(err)
	result.Status = typeset.StatusError
	result.CompletedAt = time.Now()
	result.Error = &typeset.BuildError{
		Category: string(classified.Category),
		Stage:    stage,
		Message:  classified.Message,
		Key:      classified.Key,
		Line:     classified.Line,
	}

	logger.LogError("build failed", logger.ErrorContext{
		RunID:    result.RunID,
		Stage:    stage,
		Category: string(classified.Category),
		Path:     classified.Path,
		Key:      classified.Key,
		Line:     classified.Line,
		Err:      err,
		Duration: result.CompletedAt.Sub(result.StartedAt),
	})
	logger.LogExecutionEnd(execCtx, typeset.StatusError, result.RecordsSelected, result.CompletedAt.Sub(result.StartedAt))
	return result, err
}

// moduleCloser interface for modules that can be closed.
type moduleCloser interface {
	Close() error
}

// closeModule closes a module and logs any error.
func (e *Executor) closeModule(runID, moduleName string, m moduleCloser) {
	if err := m.Close(); err != nil {
		logger.Warn("failed to close module",
			slog.String("run_id", runID),
			slog.String("module", moduleName),
			slog.String("error", err.Error()),
		)
	}
}
