package harness

import (
	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/trace"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the run finished and every assertion held.
	Pass bool `json:"pass"`

	// Errors contains the run failure and assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Events is the recorded event log in Seq order.
	Events []event.Event `json:"events"`

	// Summary aggregates Events.
	Summary trace.Summary `json:"summary"`

	// Report is the full run report, including token pool counters.
	Report *sim.Report `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Events: []event.Event{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
