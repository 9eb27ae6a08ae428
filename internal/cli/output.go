package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess       = 0  // Successful execution
	ExitFailure       = 1  // Store, load or query failure
	ExitUsage         = -1 // Unknown action, missing arguments, bad flags
	ExitMissingFolder = -2 // loadTable folder does not exist
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure, ExitUsage or ExitMissingFolder)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode names an exit code in structured output.
func errorCode(code int) string {
	switch code {
	case ExitUsage:
		return "E_USAGE"
	case ExitMissingFolder:
		return "E_FOLDER"
	default:
		return "E_FAILURE"
	}
}

// Texter is implemented by command results that have a plain-text form.
type Texter interface {
	Text() string
}

// OutputFormatter writes command results as text, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard structured response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"`                   // "ok" or "error"
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code" yaml:"code"`       // "E_USAGE", "E_FOLDER", "E_FAILURE"
	Message string `json:"message" yaml:"message"` // human-readable message
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data Texter) error {
	switch f.Format {
	case "json":
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.writeYAML(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data.Text())
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code int, message string) error {
	resp := CLIResponse{
		Status: "error",
		Error:  &CLIError{Code: errorCode(code), Message: message},
	}
	switch f.Format {
	case "json":
		return json.NewEncoder(f.Writer).Encode(resp)
	case "yaml":
		return f.writeYAML(resp)
	}
	_, err := fmt.Fprintf(f.Writer, "Error: %s\n", message)
	return err
}

func (f *OutputFormatter) writeYAML(v any) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// bracketList renders items as "[a, b, c]".
func bracketList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
