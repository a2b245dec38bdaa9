// Package cli provides CLI output formatting and display functions.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/internal/schema"
)

// PrintBuildError prints a one-line diagnostic for a failed build to w.
// In verbose mode the category and the missing field follow on their own lines.
func PrintBuildError(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}

	var classified *errhandling.ClassifiedError
	if !errors.As(err, &classified) {
		fmt.Fprintf(w, "✗ Build failed: %s\n", err)
		return
	}

	location := formatErrorLocation(classified.Path, classified.Line, classified.Key)
	if location != "" {
		fmt.Fprintf(w, "✗ Build failed: %s: %s\n", location, classified.Message)
	} else {
		fmt.Fprintf(w, "✗ Build failed: %s\n", classified.Message)
	}

	if verbose {
		fmt.Fprintf(w, "    Category: %s\n", classified.Category)
		if classified.Field != "" {
			fmt.Fprintf(w, "    Field: %s\n", classified.Field)
		}
	}
}

// formatErrorLocation formats the error location string (path:line, key).
func formatErrorLocation(path string, line int, key string) string {
	location := path
	switch {
	case line > 0 && location == "":
		location = fmt.Sprintf("line %d", line)
	case line > 0:
		location += fmt.Sprintf(":%d", line)
	}
	if key != "" {
		if location != "" {
			location += " "
		}
		location += fmt.Sprintf("key %q", key)
	}
	return location
}

// PrintValidationErrors prints schema validation errors to w.
func PrintValidationErrors(w io.Writer, errs []schema.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, "✗ Validation errors:")
	for _, err := range errs {
		printSingleValidationError(w, err, verbose)
	}
	printValidationHint(w, quiet)
}

func printSingleValidationError(w io.Writer, err schema.ValidationError, verbose bool) {
	path := err.Path
	if path == "" {
		path = "/"
	}

	if verbose {
		fmt.Fprintf(w, "  %s:\n", path)
		fmt.Fprintf(w, "    Message: %s\n", err.Message)
		if err.Type != "" {
			fmt.Fprintf(w, "    Type: %s\n", err.Type)
		}
		return
	}
	printCompactValidationError(w, path, err.Message)
}

// printCompactValidationError prints a compact validation error message.
func printCompactValidationError(w io.Writer, path, message string) {
	shortMsg := message
	if len(shortMsg) > 80 {
		shortMsg = shortMsg[:77] + "..."
	}
	fmt.Fprintf(w, "  %s: %s\n", path, shortMsg)
}

func printValidationHint(w io.Writer, quiet bool) {
	if !quiet {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}
