package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution, including searches that find nothing
	ExitFailure      = 1 // Runtime failure (search error, archive write failed, etc.)
	ExitCommandError = 2 // Configuration or table construction error, bad arguments
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// setupExitError wraps an error raised before the search starts. Setup
// errors are the configuration's fault and exit 2; anything else (an
// unreadable file, say) is too.
func setupExitError(message string, err error) *ExitError {
	return WrapExitError(ExitCommandError, message, err)
}

// errorCode returns the E-code of a setup or budget error, or "" for any
// other error.
func errorCode(err error) string {
	var se *ir.SetupError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	var be *engine.BudgetExceededError
	if errors.As(err, &be) {
		return be.Code()
	}
	return ""
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
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
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

	if code != "" {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	} else {
		fmt.Fprintf(f.Writer, "Error: %s\n", message)
	}
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// SetupError reports a configuration or table error, with the offending
// field and value as details.
func (f *OutputFormatter) SetupError(err error) error {
	var se *ir.SetupError
	if errors.As(err, &se) {
		details := map[string]string{}
		if se.Field != "" {
			details["field"] = se.Field
		}
		if se.Value != "" {
			details["value"] = se.Value
		}
		for k, v := range se.Details {
			details[k] = v
		}
		return f.Error(string(se.Code), err.Error(), details)
	}
	return f.Error(errorCode(err), err.Error(), nil)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// compositionJSON is the JSON form of one result.
type compositionJSON struct {
	ID           string   `json:"id"`
	Length       int      `json:"length"`
	PartLengths  []int    `json:"part_lengths"`
	PartHead     string   `json:"part_head"`
	Score        float64  `json:"score"`
	AvgScore     float64  `json:"avg_score"`
	CallString   string   `json:"call_string"`
	MethodCounts []int    `json:"method_counts"`
	MusicCounts  []int    `json:"music_counts"`
	Rows         []string `json:"rows,omitempty"`
}

// statsJSON is the JSON form of the search statistics.
type statsJSON struct {
	Nodes      int64   `json:"nodes"`
	Found      int64   `json:"found"`
	ElapsedSec float64 `json:"elapsed_seconds"`
	StopReason string  `json:"stop_reason"`
}

// searchJSON is the payload of `ringer search --format json`.
type searchJSON struct {
	RunID        string            `json:"run_id"`
	Compositions []compositionJSON `json:"compositions"`
	Stats        statsJSON         `json:"stats"`
}

func toCompositionJSON(c *engine.Composition, withRows bool) compositionJSON {
	out := compositionJSON{
		ID:           c.ID,
		Length:       c.Length,
		PartLengths:  c.PartLengths,
		PartHead:     c.PartHead.String(),
		Score:        c.Score,
		AvgScore:     c.AvgScore,
		CallString:   c.CallString,
		MethodCounts: c.MethodCounts,
		MusicCounts:  c.MusicCounts,
	}
	if withRows {
		out.Rows = make([]string, len(c.Rows))
		for i, r := range c.Rows {
			out.Rows[i] = r.String()
		}
	}
	return out
}

func toSearchJSON(runID string, res *engine.Result, withRows bool) searchJSON {
	out := searchJSON{
		RunID:        runID,
		Compositions: make([]compositionJSON, len(res.Compositions)),
		Stats: statsJSON{
			Nodes:      res.Stats.Nodes,
			Found:      res.Stats.Found,
			ElapsedSec: res.Stats.Elapsed.Seconds(),
			StopReason: res.Stats.StopReason,
		},
	}
	for i := range res.Compositions {
		out.Compositions[i] = toCompositionJSON(&res.Compositions[i], withRows)
	}
	return out
}

// writeCompositions prints one line per composition, best first.
func writeCompositions(w io.Writer, comps []engine.Composition) {
	for i := range comps {
		fmt.Fprintln(w, comps[i].String())
	}
}

var (
	headingColor = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
)

// writeSummary prints the completion line after the listing. Colour
// follows fatih/color, which honours NO_COLOR and non-terminal output.
func writeSummary(w io.Writer, res *engine.Result) {
	s := res.Stats
	status := okColor.Sprint("search complete")
	if s.StopReason != "exhausted" {
		status = warnColor.Sprintf("search stopped (%s)", s.StopReason)
	}
	fmt.Fprintf(w, "%s: %d compositions, %d found, %d nodes in %s\n",
		status, len(res.Compositions), s.Found, s.Nodes, s.Elapsed.Round(time.Millisecond))
}
