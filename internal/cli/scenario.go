package cli

import (
	"errors"

	"github.com/roach88/giant/internal/harness"
)

// harnessOptions wires the resolved configuration and logger into a harness.
func (o *RootOptions) harnessOptions(extra ...harness.Option) []harness.Option {
	opts := []harness.Option{
		harness.WithContextOptions(o.Config.ContextOptions()...),
		harness.WithOptimizerOptions(o.Config.OptimizerOptions()...),
	}
	if o.Logger != nil {
		opts = append(opts, harness.WithLogger(o.Logger))
	}
	return append(opts, extra...)
}

// runScenarioFile loads and executes one scenario file. Failures are
// reported through f and returned as ExitErrors: unreadable or invalid
// scenarios and rejected declarations are command errors.
func runScenarioFile(o *RootOptions, f *OutputFormatter, path string, extra ...harness.Option) (*harness.Result, error) {
	f.VerboseLog("Loading scenario %s", path)
	s, err := harness.LoadScenario(path)
	if err != nil {
		var invalid *harness.InvalidScenarioError
		if errors.As(err, &invalid) {
			return nil, f.Fail(ExitCommandError, ErrCodeInvalid, err)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeLoad, err)
	}

	result, err := harness.Run(s, o.harnessOptions(extra...)...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeRun, err)
	}
	f.VerboseLog("Scenario %s: run %s, %d event(s)", result.Scenario, result.RunID, len(result.Events))
	return result, nil
}
