package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/giant/internal/compiler"
	"github.com/roach88/giant/internal/harness"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Files  int                        `json:"files"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files without running them.

Checks syntax, the CUE schema for .cue files, declaration consistency
(ranges, confidences, tolerances, intervals, references) and assertion
shapes. Every problem is reported, not just the first.

Exit codes:
  0 - All scenarios valid
  1 - Validation errors found
  2 - Command error (missing paths, unreadable files)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var files []string
	for _, path := range paths {
		found, err := findScenarioFiles(path, "")
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeLoad, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return f.Fail(ExitCommandError, ErrCodeLoad, errors.New("no scenario files found"))
	}

	var validationErrors []compiler.ValidationError
	for _, file := range files {
		f.VerboseLog("Validating %s", file)
		errs, err := validateFile(file)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeLoad, err)
		}
		validationErrors = append(validationErrors, errs...)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(f, len(files), validationErrors)
	}
	return outputValidateSuccess(f, len(files))
}

// validateFile loads one scenario. Syntax, schema and validation failures
// come back as ValidationErrors with the field prefixed by the file name; an
// unreadable file is returned as err.
func validateFile(file string) ([]compiler.ValidationError, error) {
	_, err := harness.LoadScenario(file)
	if err == nil {
		return nil, nil
	}

	var invalid *harness.InvalidScenarioError
	if errors.As(err, &invalid) {
		out := make([]compiler.ValidationError, len(invalid.Errors))
		for i, e := range invalid.Errors {
			e.Field = file + ": " + e.Field
			out[i] = e
		}
		return out, nil
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		line := 0
		if compileErr.Pos.IsValid() {
			line = compileErr.Pos.Line()
		}
		return []compiler.ValidationError{{
			Field:   file + ": " + compileErr.Field,
			Message: compileErr.Message,
			Code:    compiler.ErrInvalidField,
			Line:    line,
		}}, nil
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return nil, err
	}
	return []compiler.ValidationError{{
		Field:   file,
		Message: err.Error(),
		Code:    compiler.ErrInvalidField,
	}}, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(f *OutputFormatter, files int) error {
	if f.IsJSON() {
		return f.Success(ValidationResult{Valid: true, Files: files})
	}
	fmt.Fprintf(f.Writer, "✓ %d scenario(s) valid\n", files)
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(f *OutputFormatter, files int, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if f.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Files: files, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := f.encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		fmt.Fprintf(f.Writer, "  %s\n", err.Error())
	}
	return exitErr
}
