package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/contracts"
	"github.com/roach88/bookledger/internal/ir"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "describe [contract]",
		Short: "Show the call surface of hosted contracts",
		Example: `  ledgerctl describe
  ledgerctl describe trading
  ledgerctl describe --cue`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw {
				_, err := cmd.OutOrStdout().Write(contracts.Manifest())
				return err
			}
			return runDescribe(rootOpts, argAt(args, 0), cmd)
		},
	}

	cmd.Flags().BoolVar(&raw, "cue", false, "print the CUE manifest source")

	return cmd
}

func runDescribe(opts *RootOptions, only string, cmd *cobra.Command) error {
	specs, err := contracts.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "load contract manifest", err)
	}

	if only != "" {
		var found []ir.ContractSpec
		for _, s := range specs {
			if s.Name == only {
				found = append(found, s)
			}
		}
		if len(found) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown contract %s", only))
		}
		specs = found
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(specs)
	}

	w := cmd.OutOrStdout()
	for i, s := range specs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s: %s\n", s.Name, s.Purpose)
		for _, fn := range s.Functions {
			mode := ""
			if fn.ReadOnly {
				mode = " (read-only)"
			}
			fmt.Fprintf(w, "  %s(%s)%s\n", fn.Name, formatArgs(fn.Args), mode)
		}
	}
	return nil
}

func formatArgs(args []ir.ArgSig) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + " " + a.Check
		if a.Optional {
			parts[i] += "?"
		}
	}
	return strings.Join(parts, ", ")
}
