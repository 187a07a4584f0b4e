package harness

import (
	"github.com/roach88/giant/internal/engine"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/optimize"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// RunID identifies this execution. It is a UUIDv7 unless the harness
	// was given another generator.
	RunID string `json:"run_id"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass indicates overall success: true if every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Explanation is the context's explain_state rendering after every
	// update step.
	Explanation string `json:"explanation"`

	// Actions are the context-wide suggested actions after every update.
	Actions []ir.Action `json:"actions"`

	// Optimal is the winning candidate, nil when the scenario declares no
	// objectives or no candidate could be scored.
	Optimal *optimize.Scored `json:"optimal,omitempty"`

	// Pareto is the non-dominated subset of the optimizer history.
	Pareto []optimize.Scored `json:"pareto,omitempty"`

	// Tradeoffs is the optimizer's trade-off explanation.
	Tradeoffs string `json:"tradeoffs,omitempty"`

	// Events is the execution log, oldest first.
	Events []engine.Event `json:"events"`

	// RefreshErrors are dynamic anchor refresh failures, in order.
	RefreshErrors []string `json:"refresh_errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult(runID, scenario string) *Result {
	return &Result{
		RunID:    runID,
		Scenario: scenario,
		Pass:     true,
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
