package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"projection-generator/internal/diagnostic"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Diagnostics with errors were reported
	ExitCommandError = 2 // Command error (bad flags, unreadable config, load failure)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON document every command prints in json format.
type Response struct {
	Status      string                  `json:"status"` // "ok" or "error"
	Data        any                     `json:"data,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics,omitempty"`
}

// Report prints data and diagnostics. Text output prints lines, one per
// diagnostic after the data lines.
func (f *OutputFormatter) Report(data any, lines []string, diags *diagnostic.Diagnostics) error {
	all := diags.All()

	if f.Format == "json" {
		status := "ok"
		if diags.HasErrors() {
			status = "error"
		}

		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")

		return enc.Encode(Response{Status: status, Data: data, Diagnostics: all})
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(f.Writer, l); err != nil {
			return err
		}
	}

	for _, d := range all {
		if _, err := fmt.Fprintf(f.Writer, "%s: %s\n", d.Severity, d); err != nil {
			return err
		}
	}

	if len(all) > 0 {
		_, err := fmt.Fprintf(f.Writer, "%d error(s), %d warning(s)\n", len(diags.Errors), len(diags.Warnings))
		return err
	}

	return nil
}

// failOnErrors returns an ExitFailure error when diags holds errors.
func failOnErrors(diags *diagnostic.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}

	return WrapExitError(ExitFailure, "projection errors", diags.Error())
}
