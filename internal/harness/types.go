package harness

import (
	"github.com/roach88/ringer/internal/engine"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expect clause and every assertion hold.
	Pass bool `json:"pass"`

	// Compositions are the search results, best first. Empty when the
	// configuration failed to compile or build.
	Compositions []engine.Composition `json:"-"`

	// StopReason is why the search ended ("exhausted", "nodes", ...).
	StopReason string `json:"stop_reason,omitempty"`

	// ErrorCode is the code of the setup error, if the search never ran.
	ErrorCode string `json:"error_code,omitempty"`

	// RunID identifies the run in the scenario's archive.
	RunID string `json:"run_id,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// CallStrings returns the call string of every composition, best first.
func (r *Result) CallStrings() []string {
	out := make([]string, len(r.Compositions))
	for i := range r.Compositions {
		out[i] = r.Compositions[i].CallString
	}
	return out
}
