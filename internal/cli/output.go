package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/schema"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (house not found, scenarios failed, etc.)
	ExitCommandError = 2 // Command error (bad flags, unopenable database, etc.)
)

// Error codes reported in CLIError.Code.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientUnits = "INSUFFICIENT_UNITS"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeInternal          = "INTERNAL"
	CodeTestFailed        = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
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
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
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
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	return writeText(f.Writer, data)
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// ServiceError reports err from a house operation and returns the
// ExitError the command should return.
func (f *OutputFormatter) ServiceError(err error) error {
	code, details := classify(err)
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	if code == CodeInternal {
		return WrapExitError(ExitCommandError, "operation failed", err)
	}
	return WrapExitError(ExitFailure, "operation failed", err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func classify(err error) (string, any) {
	var ve *schema.ValidationError
	switch {
	case model.IsNotFound(err):
		return CodeNotFound, nil
	case model.IsInsufficientUnits(err):
		return CodeInsufficientUnits, nil
	case errors.As(err, &ve):
		return CodeInvalidPayload, ve.Errors
	default:
		return CodeInternal, nil
	}
}

// writeText renders houses and change records as aligned columns and
// anything else with its default format.
func writeText(w io.Writer, data any) error {
	switch v := data.(type) {
	case model.House:
		return writeHouses(w, []model.House{v})
	case []model.House:
		if len(v) == 0 {
			_, err := fmt.Fprintln(w, "No houses.")
			return err
		}
		return writeHouses(w, v)
	case []model.ChangeRecord:
		if len(v) == 0 {
			_, err := fmt.Fprintln(w, "No changes.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tCHANGE\tHOUSE\tID")
		for _, rec := range v {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", rec.Timestamp, rec.ChangeType, rec.HouseID, rec.ID)
		}
		return tw.Flush()
	default:
		_, err := fmt.Fprintln(w, data)
		return err
	}
}

func writeHouses(w io.Writer, houses []model.House) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tLOCATION\tTYPE\tPRICE\tUNITS\tAVAILABLE\tCREATED\tUPDATED")
	for _, h := range houses {
		updated := "-"
		if ts, ok := h.UpdatedAt.Get(); ok {
			updated = fmt.Sprint(ts)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%t\t%d\t%s\n",
			h.ID, h.OwnersName, h.Location, h.HouseType, h.Price,
			h.AvailableUnits, h.Availability, h.CreatedAt, updated)
	}
	return tw.Flush()
}
