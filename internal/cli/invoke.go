package cli

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	NewID bool // prepend a fresh UUID as the first argument
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <contract> <function> [args...]",
		Short: "Invoke a contract function against the ledger",
		Long: `Invoke one contract function in its own ledger transaction.

The call commits when the function succeeds and is not read-only. The
payload is printed on success; on failure the status and message are
printed and the exit code is 1.

Examples:
  ledgerctl invoke user createUser bob example.com "Bob"
  ledgerctl invoke user getUser bob@example.com
  ledgerctl invoke room createRoom --new-id rental alice@example.com example.com
  ledgerctl --format json invoke trading getTradingList alice@example.com`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeFunction(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NewID, "new-id", false, "prepend a generated UUID as the first argument")

	return cmd
}

func invokeFunction(opts *InvokeOptions, contract, function string, args []string, cmd *cobra.Command) error {
	rt, err := openRuntime(opts.RootOptions, cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer rt.close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.NewID {
		id := uuid.NewString()
		formatter.VerboseLog("generated id %s", id)
		args = append([]string{id}, args...)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resp := rt.engine.Invoke(ctx, ir.Call{Contract: contract, Function: function, Args: args})
	return formatter.Envelope(resp)
}
