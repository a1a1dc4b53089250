package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/contracts"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Contracts []string `json:"contracts,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [manifest.cue]",
		Short: "Check a contract manifest against the built-in handlers",
		Long: `Compile a CUE contract manifest and check that every declared
function has a handler, every handler is declared and every argument
check exists. Without an argument the embedded manifest is checked.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, argAt(args, 0), cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	src, name := contracts.Manifest(), "contracts.cue"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "read manifest", err)
		}
		src, name = data, path
	}
	formatter.VerboseLog("validating %s", name)

	result := ValidationResult{Valid: true}
	specs, err := contracts.Parse(src, name)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	handlers := contracts.Handlers()
	for _, spec := range specs {
		result.Contracts = append(result.Contracts, spec.Name)
		h, ok := handlers[spec.Name]
		if !ok {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("contract %s: no handlers", spec.Name))
			continue
		}
		if _, err := contracts.Build(spec, h); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s valid (%d contracts)\n", name, len(result.Contracts))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s invalid\n", name)
		for _, e := range result.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d manifest error(s)", len(result.Errors)))
	}
	return nil
}
