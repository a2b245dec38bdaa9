package cli

import (
	"fmt"
	"io"

	"github.com/canectors/typegen/internal/schema"
	"github.com/canectors/typegen/pkg/typeset"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	DryRun  bool
}

// PrintBuildResult displays the outcome of a build. Success goes to out,
// failure to errOut.
func PrintBuildResult(out, errOut io.Writer, result *typeset.BuildResult, err error, opts OutputOptions) {
	if err != nil {
		PrintBuildError(errOut, err, opts.Verbose)
		return
	}
	if result == nil {
		fmt.Fprintln(errOut, "✗ No build result available")
		return
	}
	if opts.Quiet {
		return
	}

	if result.DryRun {
		fmt.Fprintln(out, "✓ Dry run completed (nothing written)")
	} else {
		fmt.Fprintf(out, "✓ Wrote %s\n", result.OutputPath)
	}
	fmt.Fprintf(out, "  Records read: %d\n", result.RecordsRead)
	fmt.Fprintf(out, "  Records selected: %d\n", result.RecordsSelected)
	if opts.Verbose {
		fmt.Fprintf(out, "  Run: %s\n", result.RunID)
		fmt.Fprintf(out, "  JSON size: %s\n", formatBytes(result.EncodedBytes))
		if !result.DryRun {
			fmt.Fprintf(out, "  File size: %s\n", formatBytes(result.WrittenBytes))
		}
		fmt.Fprintf(out, "  Duration: %v\n", result.CompletedAt.Sub(result.StartedAt))
	}
}

// PrintVerifyReport displays the outcome of validating an output file.
func PrintVerifyReport(out, errOut io.Writer, report *schema.Report, opts OutputOptions) {
	if report == nil {
		fmt.Fprintln(errOut, "✗ No verification report available")
		return
	}
	if !report.Valid {
		fmt.Fprintf(errOut, "✗ %s does not match the output schema\n", report.Path)
		PrintValidationErrors(errOut, report.Errors, opts.Verbose, opts.Quiet)
		return
	}
	if opts.Quiet {
		return
	}

	fmt.Fprintf(out, "✓ %s is valid\n", report.Path)
	fmt.Fprintf(out, "  Records: %d\n", report.Records)
	if opts.Verbose {
		fmt.Fprintf(out, "  JSON size: %s\n", formatBytes(report.Bytes))
	}
}

// formatBytes renders n with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
