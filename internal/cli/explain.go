package cli

import (
	"github.com/spf13/cobra"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <scenario>",
		Short: "Run a scenario and explain the resulting relational state",
		Long: `Run a scenario and print its report: the explained relational state,
suggested actions, the optimizer's choice and trade-offs, and assertion
results.

Assertion failures are reported but do not change the exit code; use
"giant test" to gate on them.

Examples:
  giant explain scenarios/thermostat.yaml
  giant explain scenarios/thermostat.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	result, err := runScenarioFile(opts, f, path)
	if err != nil {
		return err
	}
	return f.Result(result.RunID, result, result.Report())
}
