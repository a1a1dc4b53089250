package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/gateway"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Gateway gateway.Config

	// ready, when set, is called with the configured address once the
	// engine is hosting contracts. Used by tests.
	ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts, Gateway: gateway.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the contracts over HTTP",
		Long: `Open the ledger, host every contract and serve the HTTP gateway
until interrupted.

Example:
  ledgerctl serve --db ./ledger.db --addr :8080
  ledgerctl serve --rps 0 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Gateway.Addr, "addr", opts.Gateway.Addr, "listen address")
	cmd.Flags().Float64Var(&opts.Gateway.RPS, "rps", opts.Gateway.RPS, "per-client requests per second (0 disables limiting)")
	cmd.Flags().IntVar(&opts.Gateway.Burst, "burst", opts.Gateway.Burst, "per-client burst size")
	cmd.Flags().DurationVar(&opts.Gateway.IdleTTL, "idle-ttl", opts.Gateway.IdleTTL, "how long an idle client's bucket is kept")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt, err := openRuntime(opts.RootOptions, cmd, slog.LevelInfo, engine.WithMetrics(engine.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer rt.close()

	srv := gateway.New(rt.engine, rt.specs, opts.Gateway,
		gateway.WithLogger(rt.logger),
		gateway.WithRegistry(reg),
	)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	for _, name := range rt.engine.Contracts() {
		if resp := rt.engine.Init(ctx, name); !resp.OK() {
			return NewExitError(ExitCommandError, fmt.Sprintf("init %s: %s", name, resp.Message))
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			rt.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rt.logger.Info("serving contracts", "db", opts.Database, "addr", opts.Gateway.Addr, "contracts", rt.engine.Contracts())
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d contracts on %s. Press Ctrl-C to stop.\n", len(rt.engine.Contracts()), opts.Gateway.Addr)
	if opts.ready != nil {
		opts.ready(opts.Gateway.Addr)
	}

	start := time.Now()
	if err := srv.ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitFailure, "gateway error", err)
	}

	rt.logger.Info("gateway stopped gracefully", "uptime", time.Since(start).Round(time.Second))
	return nil
}
