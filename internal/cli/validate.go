package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/deckmirror/internal/harness"
)

// FileValidation is the validation outcome for one scenario file.
type FileValidation struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [scenario.yaml...]",
		Short: "Check the config and scenario files without running them",
		Long: `Parse the CUE config and each scenario file and report every
problem found. Scenarios default to those listed in the config.

Exit codes:
  0 - Everything is valid
  1 - At least one scenario is invalid
  2 - Config error or nothing to validate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	paths := args
	if len(paths) == 0 {
		paths = opts.config().ScenarioPaths()
	}
	if len(paths) == 0 {
		_ = out.Error(ErrCodeNotFound, "no scenario files given and none configured", nil)
		return NewExitError(ExitCommandError, "nothing to validate")
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	invalid := 0
	for _, path := range paths {
		fv := FileValidation{Path: path, Valid: true}
		sc, err := harness.LoadScenario(path)
		if err != nil {
			fv.Valid = false
			fv.Error = err.Error()
			result.Valid = false
			invalid++
		} else {
			fv.Name = sc.Name
			out.VerboseLog("%s: %d steps, %d assertions", path, len(sc.Steps), len(sc.Assertions))
		}
		result.Files = append(result.Files, fv)
	}

	if out.JSON() {
		var failure *CLIError
		if !result.Valid {
			failure = &CLIError{Code: ErrCodeValidateFailed, Message: fmt.Sprintf("%d invalid scenario file(s)", invalid)}
		}
		if err := out.Result(result, failure); err != nil {
			return err
		}
	} else {
		for _, fv := range result.Files {
			if fv.Valid {
				out.Printf("✓ %s\n", fv.Path)
			} else {
				out.Printf("✗ %s\n  %s\n", fv.Path, fv.Error)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid scenario file(s)", invalid))
	}
	return nil
}
