package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/giant/internal/optimize"
)

// OptimizeResult is the JSON payload of the optimize command.
type OptimizeResult struct {
	Scenario  string            `json:"scenario"`
	Optimal   *optimize.Scored  `json:"optimal"`
	Pareto    []optimize.Scored `json:"pareto"`
	Tradeoffs string            `json:"tradeoffs"`
}

var errNoObjectives = errors.New("scenario declares no objectives")

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <scenario>",
		Short: "Choose the best candidate action for a scenario's objectives",
		Long: `Run a scenario and report the optimizer's outcome: the winning
candidate with its score breakdown, the Pareto front of every scored
candidate, and the trade-offs between objectives.

Candidates are the scenario's "candidates" list, or the suggested actions
when it has none.

Exit codes:
  0 - An optimal action was found
  1 - No candidate could be scored
  2 - Command error (unreadable scenario, no objectives, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runOptimize(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	result, err := runScenarioFile(opts, f, path)
	if err != nil {
		return err
	}
	if result.Tradeoffs == "" {
		return f.Fail(ExitCommandError, ErrCodeInvalid, fmt.Errorf("%s: %w", result.Scenario, errNoObjectives))
	}
	if result.Optimal == nil {
		return f.Fail(ExitFailure, ErrCodeNoAction, fmt.Errorf("%s: no candidate action could be scored", result.Scenario))
	}

	out := OptimizeResult{
		Scenario:  result.Scenario,
		Optimal:   result.Optimal,
		Pareto:    result.Pareto,
		Tradeoffs: result.Tradeoffs,
	}
	return f.Result(result.RunID, out, formatOptimize(out))
}

func formatOptimize(r OptimizeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Optimal action: %s\n", r.Optimal.Action)
	b.WriteString(r.Optimal.Explanation)
	fmt.Fprintf(&b, "\n\nPareto front: %d solution(s)\n", len(r.Pareto))
	for _, s := range r.Pareto {
		label := s.Note
		if s.Action != nil {
			label = s.Action.String()
		}
		fmt.Fprintf(&b, "  - %s (score %.2f)\n", label, s.Score)
	}
	b.WriteString("\n")
	b.WriteString(r.Tradeoffs)
	b.WriteString("\n")
	return b.String()
}
