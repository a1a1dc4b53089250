package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/contracts"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
)

// runtime is an opened ledger with every contract registered on an engine.
type runtime struct {
	ledger *ledger.Ledger
	engine *engine.Engine
	specs  []ir.ContractSpec
	logger *slog.Logger
}

// newLogger builds the process logger. Debug when verbose, otherwise
// quiet unless base is lowered by the caller.
func newLogger(w io.Writer, verbose bool, base slog.Level) *slog.Logger {
	level := base
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openRuntime opens the ledger named by --db and hosts every contract.
// The caller must call close.
func openRuntime(opts *RootOptions, cmd *cobra.Command, level slog.Level, engineOpts ...engine.EngineOption) (*runtime, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, level)

	specs, err := contracts.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load contract manifest", err)
	}

	l, err := ledger.OpenConfig(ledger.DefaultConfig(opts.Database), logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open ledger "+opts.Database, err)
	}

	eng := engine.New(l, append([]engine.EngineOption{engine.WithLogger(logger)}, engineOpts...)...)
	if err := contracts.RegisterAll(eng); err != nil {
		l.Close()
		return nil, WrapExitError(ExitCommandError, "register contracts", err)
	}

	return &runtime{ledger: l, engine: eng, specs: specs, logger: logger}, nil
}

func (r *runtime) close() {
	if err := r.ledger.Close(); err != nil {
		r.logger.Error("error closing ledger", "error", err)
	}
}
