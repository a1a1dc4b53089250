package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
	"github.com/roach88/bookledger/internal/queryir"
)

// Entry is one state item printed by the query commands.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// NewQueryCommand creates the query command and its read-only subcommands.
// Every subcommand reads inside a transaction that is always rolled back.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read contract state directly from the ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "range <contract> [start] [end]",
		Short: "List simple keys in [start, end)",
		Example: `  ledgerctl query range user
  ledgerctl query range user a b`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end := argAt(args, 1), argAt(args, 2)
			return readState(rootOpts, args[0], cmd, func(ctx context.Context, stub *ledger.Stub) (any, error) {
				it, err := stub.GetStateByRange(ctx, start, end)
				if err != nil {
					return nil, err
				}
				return drainEntries(ctx, it)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "partial <contract> <object-type> [attrs...]",
		Short:         "List composite keys by leading attributes",
		Example:       `  ledgerctl query partial ownership ownership alice@example.com`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return readState(rootOpts, args[0], cmd, func(ctx context.Context, stub *ledger.Stub) (any, error) {
				it, err := stub.GetStateByPartialCompositeKey(ctx, args[1], args[2:])
				if err != nil {
					return nil, err
				}
				return drainEntries(ctx, it)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rich <contract> <query-json>",
		Short:         "Run a selector query over JSON records",
		Example:       `  ledgerctl query rich trading '{"selector":{"owner":"alice@example.com","returnedAt":{"$exists":false}},"limit":10}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := queryir.Parse([]byte(args[1]))
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid query", err)
			}
			return readState(rootOpts, args[0], cmd, func(ctx context.Context, stub *ledger.Stub) (any, error) {
				it, err := stub.GetQueryResult(ctx, doc)
				if err != nil {
					return nil, err
				}
				return drainEntries(ctx, it)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "history <contract> <key>",
		Short:         "Show the committed writes of one key",
		Example:       `  ledgerctl query history user bob@example.com`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return readState(rootOpts, args[0], cmd, func(ctx context.Context, stub *ledger.Stub) (any, error) {
				return stub.GetHistoryForKey(ctx, args[1])
			})
		},
	})

	return cmd
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// readState runs read inside a rolled-back transaction on contract's
// namespace and prints its result.
func readState(opts *RootOptions, contract string, cmd *cobra.Command, read func(context.Context, *ledger.Stub) (any, error)) error {
	rt, err := openRuntime(opts, cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stub, err := rt.ledger.Begin(ctx, ledger.TxOptions{Namespace: contract})
	if err != nil {
		return WrapExitError(ExitCommandError, "begin read", err)
	}
	defer func() {
		if rerr := stub.Rollback(); rerr != nil {
			rt.logger.Warn("rollback failed", "error", rerr)
		}
	}()

	result, err := read(ctx, stub)
	if err != nil {
		return WrapExitError(ExitFailure, "query "+contract, err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return printText(cmd, result)
}

func drainEntries(ctx context.Context, it engine.Iterator) ([]Entry, error) {
	return engine.DrainAs(ctx, it, nil, func(kv *ir.KV) (Entry, error) {
		value := json.RawMessage(kv.Value)
		if !json.Valid(kv.Value) {
			quoted, err := json.Marshal(string(kv.Value))
			if err != nil {
				return Entry{}, err
			}
			value = quoted
		}
		return Entry{Key: kv.Key, Value: value}, nil
	})
}

func printText(cmd *cobra.Command, result any) error {
	w := cmd.OutOrStdout()
	switch rows := result.(type) {
	case []Entry:
		for _, e := range rows {
			fmt.Fprintf(w, "%q %s\n", e.Key, e.Value)
		}
		fmt.Fprintf(w, "%d entries\n", len(rows))
	case []ir.HistoryEntry:
		for _, h := range rows {
			if h.IsDelete {
				fmt.Fprintf(w, "%s %s deleted\n", h.Timestamp, h.TxID)
				continue
			}
			fmt.Fprintf(w, "%s %s %s\n", h.Timestamp, h.TxID, h.Value)
		}
		fmt.Fprintf(w, "%d entries\n", len(rows))
	default:
		fmt.Fprintln(w, result)
	}
	return nil
}
