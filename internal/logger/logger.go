// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across the build.
//
// Execution helpers log the start and end of a run and of each stage with
// consistent snake_case field names (run_id, stage, record_count, ...).
//
// Two output formats are supported:
//   - JSON (default): machine-readable structured logging
//   - Human: console output with level prefixes and optional colors
//
// Logs go to stderr; stdout is left to command output.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is the default logger instance.
var Logger *slog.Logger

var (
	mu      sync.Mutex
	output  io.Writer = os.Stderr
	level             = slog.LevelInfo
	format            = FormatJSON
	logFile *os.File
)

func init() {
	rebuild()
}

// OutputFormat represents the log output format.
type OutputFormat int

const (
	// FormatJSON is the default machine-readable JSON format
	FormatJSON OutputFormat = iota
	// FormatHuman is a human-readable console format with prefixes
	FormatHuman
)

// ParseFormat converts a flag value ("json", "human") to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (expected json or human)", s)
	}
}

// String returns the name of the output format.
func (f OutputFormat) String() string {
	switch f {
	case FormatHuman:
		return "human"
	default:
		return "json"
	}
}

// SetLevel configures the logging level.
func SetLevel(l slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	rebuild()
}

// SetFormat sets the log output format.
func SetFormat(f OutputFormat) {
	mu.Lock()
	defer mu.Unlock()
	format = f
	rebuild()
}

// SetLevelAndFormat sets both the log level and format.
func SetLevelAndFormat(l slog.Level, f OutputFormat) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	format = f
	rebuild()
}

// SetOutput redirects console logging to w (os.Stderr by default).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// rebuild recreates Logger from the current settings. Callers hold mu,
// except init.
func rebuild() {
	console := consoleHandler(output, level, format)
	if logFile != nil {
		Logger = slog.New(&dualHandler{
			console: console,
			file:    slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
		})
		return
	}
	Logger = slog.New(console)
}

func consoleHandler(w io.Writer, l slog.Level, f OutputFormat) slog.Handler {
	if f == FormatHuman {
		return NewHumanHandler(w, &HumanHandlerOptions{
			Level:     l,
			UseColors: isTerminal(w),
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithRun returns a logger with the run id attached.
func WithRun(runID string) *slog.Logger {
	return Logger.With("run_id", runID)
}

// =============================================================================
// Execution Context Helpers
// =============================================================================

// ExecutionContext contains context information for build logging.
type ExecutionContext struct {
	// RunID identifies the build run (required)
	RunID string
	// InputPath is the source document
	InputPath string
	// OutputPath is the target file
	OutputPath string
	// Stage is the current stage (load, filter, project, write)
	Stage string
	// DryRun indicates the write stage is skipped
	DryRun bool
}

// ErrorContext contains structured context for error logging.
type ErrorContext struct {
	RunID    string
	Stage    string
	Category string
	Path     string
	Key      string
	Line     int
	Err      error
	Duration time.Duration
	Extra    map[string]any
}

// LogExecutionStart logs the start of a build.
func LogExecutionStart(ctx ExecutionContext) {
	Logger.Info("build started", buildContextAttrs(ctx)...)
}

// LogExecutionEnd logs the end of a build with its status.
func LogExecutionEnd(ctx ExecutionContext, status string, recordsSelected int, duration time.Duration) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.String("status", status),
		slog.Int("records_selected", recordsSelected),
		slog.Duration("duration", duration),
	)
	Logger.Info("build completed", attrs...)
}

// LogStageStart logs the start of a stage.
func LogStageStart(ctx ExecutionContext) {
	Logger.Debug("stage started", buildContextAttrs(ctx)...)
}

// LogStageEnd logs the end of a stage. A non-nil err is logged at error level.
func LogStageEnd(ctx ExecutionContext, recordCount int, duration time.Duration, err error) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Int("record_count", recordCount),
		slog.Duration("duration", duration),
	)

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		Logger.Error("stage failed", attrs...)
		return
	}
	Logger.Info("stage completed", attrs...)
}

// LogError logs an error with full build context, including the unwrapped
// error chain.
func LogError(message string, errCtx ErrorContext) {
	attrs := make([]any, 0, 16)

	if errCtx.RunID != "" {
		attrs = append(attrs, slog.String("run_id", errCtx.RunID))
	}
	if errCtx.Stage != "" {
		attrs = append(attrs, slog.String("stage", errCtx.Stage))
	}
	if errCtx.Category != "" {
		attrs = append(attrs, slog.String("error_category", errCtx.Category))
	}
	if errCtx.Path != "" {
		attrs = append(attrs, slog.String("path", errCtx.Path))
	}
	if errCtx.Key != "" {
		attrs = append(attrs, slog.String("key", errCtx.Key))
	}
	if errCtx.Line > 0 {
		attrs = append(attrs, slog.Int("line", errCtx.Line))
	}
	if errCtx.Err != nil {
		attrs = append(attrs,
			slog.String("error", errCtx.Err.Error()),
			slog.String("error_type", fmt.Sprintf("%T", errCtx.Err)),
		)

		chain := []string{errCtx.Err.Error()}
		for cur := errors.Unwrap(errCtx.Err); cur != nil; cur = errors.Unwrap(cur) {
			chain = append(chain, cur.Error())
		}
		if len(chain) > 1 {
			attrs = append(attrs, slog.String("error_chain", strings.Join(chain, " -> ")))
		}
	}
	if errCtx.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", errCtx.Duration))
	}
	for k, v := range errCtx.Extra {
		attrs = append(attrs, slog.Any(k, v))
	}

	Logger.Error(message, attrs...)
}

// buildContextAttrs builds slog attributes from an ExecutionContext.
// Only non-empty fields are included.
func buildContextAttrs(ctx ExecutionContext) []any {
	attrs := make([]any, 0, 6)
	attrs = append(attrs, slog.String("run_id", ctx.RunID))

	if ctx.Stage != "" {
		attrs = append(attrs, slog.String("stage", ctx.Stage))
	}
	if ctx.InputPath != "" {
		attrs = append(attrs, slog.String("input_path", ctx.InputPath))
	}
	if ctx.OutputPath != "" {
		attrs = append(attrs, slog.String("output_path", ctx.OutputPath))
	}
	if ctx.DryRun {
		attrs = append(attrs, slog.Bool("dry_run", true))
	}
	return attrs
}

// =============================================================================
// Log File Output Support
// =============================================================================

// maxLogFileSize is the size at which an existing log file is rotated (10MB)
const maxLogFileSize = 10 * 1024 * 1024

// SetLogFile additionally writes JSON logs to path. An existing file larger
// than 10MB is renamed with a timestamp suffix first.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLogFileLocked()

	if err := rotateLogFile(path); err != nil {
		Logger.Warn("log rotation failed", slog.String("error", err.Error()))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f
	rebuild()
	return nil
}

// CloseLogFile closes the log file if one is open.
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()
	closeLogFileLocked()
	rebuild()
}

func closeLogFileLocked() {
	if logFile == nil {
		return
	}
	_ = logFile.Sync()
	_ = logFile.Close()
	logFile = nil
}

func rotateLogFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking log file size: %w", err)
	}
	if info.Size() < maxLogFileSize {
		return nil
	}

	rotatedPath := fmt.Sprintf("%s.%s", path, time.Now().Format("20060102-150405"))
	if err := os.Rename(path, rotatedPath); err != nil {
		return fmt.Errorf("rotating log file: %w", err)
	}
	return nil
}
