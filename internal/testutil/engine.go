package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bookledger/internal/contracts"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
)

// BaseTime is the first transaction timestamp of a test engine.
var BaseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewEngine hosts every contract over a fresh ledger in t's temp dir.
// Transaction ids are sequential and timestamps advance one second per
// call starting at BaseTime.
func NewEngine(t testing.TB) (*engine.Engine, *ledger.Ledger) {
	t.Helper()

	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	clock := NewDeterministicClock(BaseTime, time.Second)
	e := engine.New(l,
		engine.WithTxIDGenerator(NewSequentialTxIDs("tx")),
		engine.WithTimeSource(clock.Now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, contracts.RegisterAll(e))
	return e, l
}

// Invoke calls contract.function with args.
func Invoke(e *engine.Engine, contract, function string, args ...string) ir.Response {
	if args == nil {
		args = []string{}
	}
	return e.Invoke(context.Background(), ir.Call{Contract: contract, Function: function, Args: args})
}

// MustInvoke calls contract.function and fails t unless it succeeds.
func MustInvoke(t testing.TB, e *engine.Engine, contract, function string, args ...string) ir.Response {
	t.Helper()
	resp := Invoke(e, contract, function, args...)
	require.Equal(t, ir.StatusOK, resp.Status, "%s.%s: %s", contract, function, resp.Message)
	return resp
}
