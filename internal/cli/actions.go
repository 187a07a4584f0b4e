package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/giant/internal/ir"
)

// ActionsOptions holds flags for the actions command.
type ActionsOptions struct {
	*RootOptions
	Relation string // restrict to one relation's actions
}

// ActionsResult is the JSON payload of the actions command.
type ActionsResult struct {
	Scenario string      `json:"scenario"`
	Relation string      `json:"relation,omitempty"`
	Actions  []ir.Action `json:"actions"`
}

// NewActionsCommand creates the actions command.
func NewActionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "actions <scenario>",
		Short: "List the actions suggested after a scenario's updates",
		Long: `Run a scenario and list the suggested actions, highest priority first.

Only relation/anchor pairs at or above the significance threshold
(GIANT_SIGNIFICANCE_THRESHOLD) produce actions.

Examples:
  giant actions scenarios/thermostat.yaml
  giant actions scenarios/thermostat.yaml --relation temp`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Relation, "relation", "", "only show actions for this relation")

	return cmd
}

func runActions(opts *ActionsOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	result, err := runScenarioFile(opts.RootOptions, f, path)
	if err != nil {
		return err
	}

	out := ActionsResult{Scenario: result.Scenario, Relation: opts.Relation, Actions: []ir.Action{}}
	for _, action := range result.Actions {
		if opts.Relation == "" || action.Relation == opts.Relation {
			out.Actions = append(out.Actions, action)
		}
	}
	return f.Result(result.RunID, out, formatActions(out))
}

func formatActions(r ActionsResult) string {
	if len(r.Actions) == 0 {
		return "No suggested actions.\n"
	}
	var b strings.Builder
	for i, action := range r.Actions {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, action, action.Relation)
	}
	return b.String()
}
