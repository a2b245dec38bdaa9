// Package main provides the CLI entry point for typegen.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canectors/typegen/internal/cli"
	"github.com/canectors/typegen/internal/config"
	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/internal/runtime"
	"github.com/canectors/typegen/internal/schema"
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// errSchemaMismatch is returned by verify when the output file does not
// match the schema.
var errSchemaMismatch = errors.New("output does not match the schema")

// flags holds the command line flags of one invocation.
type flags struct {
	verbose   bool
	quiet     bool
	dryRun    bool
	logFormat string
	logFile   string

	// reported is set once a command has printed its own diagnostic.
	reported bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line with args and returns the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f := &flags{}
	root := newRootCmd(f, stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	logger.CloseLogFile()
	if err == nil {
		return errhandling.ExitSuccess
	}

	if !f.reported {
		// Usage and flag errors; cobra does not print them with SilenceErrors.
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return errhandling.ExitCode(err)
}

func newRootCmd(f *flags, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "typegen",
		Short: "typegen - Build the market type list",
		Long: `typegen builds the market type list from the type catalogue.

It reads types.yaml from the working directory, keeps the records that
have a marketGroupID, reduces each to {id, name, groupID} and writes them
as compact JSON to types.json.gz.

Exit codes:
  0 - Success
  1 - A selected record has the wrong shape (or verify found schema errors)
  2 - The source could not be loaded
  3 - The output could not be written, or another runtime error

Examples:
  # Build the type list
  typegen

  # Check the source without writing
  typegen build --dry-run

  # Check a written type list
  typegen verify`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return configureLogger(f, stderr)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), f, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the market type list",
		Long: `Build types.json.gz from types.yaml in the working directory.

Flags:
  --dry-run   Load, filter and encode without writing the output file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), f, stdout, stderr)
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Validate the written type list against the output schema",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runVerify(f, stdout, stderr)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", buildDate)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "json", "Log format on stderr (json or human)")
	rootCmd.PersistentFlags().StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")

	// Build flags
	rootCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Run without writing the output file")
	buildCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Run without writing the output file")

	rootCmd.AddCommand(buildCmd, verifyCmd, versionCmd)
	return rootCmd
}

func configureLogger(f *flags, stderr io.Writer) error {
	format, err := logger.ParseFormat(f.logFormat)
	if err != nil {
		return err
	}

	lvl := slog.LevelInfo
	switch {
	case f.verbose:
		lvl = slog.LevelDebug
	case f.quiet:
		lvl = slog.LevelError
	}

	logger.SetOutput(stderr)
	logger.SetLevelAndFormat(lvl, format)

	if f.logFile != "" {
		if err := logger.SetLogFile(f.logFile); err != nil {
			return err
		}
	}
	return nil
}

func runBuild(ctx context.Context, f *flags, stdout, stderr io.Writer) error {
	opts := config.Default()
	opts.DryRun = f.dryRun

	result, err := runtime.Build(ctx, opts)
	f.reported = true
	cli.PrintBuildResult(stdout, stderr, result, err, cli.OutputOptions{
		Verbose: f.verbose,
		Quiet:   f.quiet,
		DryRun:  f.dryRun,
	})
	return err
}

func runVerify(f *flags, stdout, stderr io.Writer) error {
	path := config.DefaultOutputPath
	opts := cli.OutputOptions{Verbose: f.verbose, Quiet: f.quiet}

	report, err := schema.ValidateFile(path)
	f.reported = true
	if err != nil {
		err = errhandling.NewLoadError(path, 0, err)
		cli.PrintBuildError(stderr, err, f.verbose)
		return err
	}

	cli.PrintVerifyReport(stdout, stderr, report, opts)
	if !report.Valid {
		return errhandling.NewShapeError("", 0, errSchemaMismatch)
	}
	return nil
}
