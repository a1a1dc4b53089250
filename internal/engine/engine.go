package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
)

// TxIDGenerator generates transaction ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TxIDGenerator interface {
	Generate() string
}

// Engine hosts contracts over one ledger.
//
// Thread-safety model:
//   - Register(): call during setup, before any Invoke
//   - Invoke(), Init(): safe from any goroutine; the ledger serializes
//     transactions
type Engine struct {
	ledger    *ledger.Ledger
	contracts map[string]*Dispatcher
	txIDs     TxIDGenerator
	now       func() time.Time
	clock     *Clock
	metrics   *Metrics
	logger    *slog.Logger

	maxCallDepth int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithTxIDGenerator sets the transaction id source. Default: UUIDv7Generator.
func WithTxIDGenerator(g TxIDGenerator) EngineOption {
	return func(e *Engine) {
		e.txIDs = g
	}
}

// WithTimeSource sets the transaction timestamp source. Default: time.Now.
func WithTimeSource(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMetrics enables dispatch metrics.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over l.
func New(l *ledger.Ledger, opts ...EngineOption) *Engine {
	e := &Engine{
		ledger:    l,
		contracts: make(map[string]*Dispatcher),
		txIDs:     UUIDv7Generator{},
		now:       time.Now,
		clock:     NewClock(),
		logger:    slog.Default(),

		maxCallDepth: DefaultMaxCallDepth,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register adds a contract with its methods.
func (e *Engine) Register(contract string, methods []Method) error {
	if contract == "" {
		return fmt.Errorf("register: empty contract name")
	}
	if _, dup := e.contracts[contract]; dup {
		return fmt.Errorf("register: contract %s already registered", contract)
	}
	reg, err := NewRegistry(methods)
	if err != nil {
		return fmt.Errorf("register %s: %w", contract, err)
	}
	e.contracts[contract] = NewDispatcher(contract, reg, e.logger.With("contract", contract))
	return nil
}

// Contracts returns registered contract names, sorted.
func (e *Engine) Contracts() []string {
	names := make([]string, 0, len(e.contracts))
	for name := range e.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher returns the dispatcher of a registered contract.
func (e *Engine) Dispatcher(contract string) (*Dispatcher, bool) {
	d, ok := e.contracts[contract]
	return d, ok
}

// Init runs the lifecycle hook of a contract. Contracts keep no
// initialization state, so it only confirms the contract is hosted.
func (e *Engine) Init(ctx context.Context, contract string) ir.Response {
	if _, ok := e.contracts[contract]; !ok {
		return ErrorResponse(&UnknownContractError{Contract: contract})
	}
	e.logger.Info("instantiated contract", "contract", contract)
	return ir.Success(nil)
}

// Invoke runs call in its own ledger transaction.
//
// The transaction commits only for a success envelope from a function that
// is not read-only. Any other outcome rolls back.
func (e *Engine) Invoke(ctx context.Context, call ir.Call) ir.Response {
	start := time.Now()
	resp, label := e.invoke(ctx, call)
	e.metrics.observe(call.Contract, label, resp.Status, time.Since(start))
	return resp
}

func (e *Engine) invoke(ctx context.Context, call ir.Call) (ir.Response, string) {
	d, ok := e.contracts[call.Contract]
	if !ok {
		err := &UnknownContractError{Contract: call.Contract}
		e.logger.Error("dispatch failed", "contract", call.Contract, "function", call.Function, "error", err)
		return ErrorResponse(err), "unknown"
	}

	label := call.Function
	m, known := d.registry.Resolve(call.Function)
	if !known {
		label = "unknown"
	}

	seq := e.clock.Next()
	txID := e.txIDs.Generate()
	stub, err := e.ledger.Begin(ctx, ledger.TxOptions{
		Namespace: call.Contract,
		TxID:      txID,
		Timestamp: e.now(),
		Invoker:   e,
	})
	if err != nil {
		serr := NewStoreError("begin", "", err)
		e.logger.Error("dispatch failed", "contract", call.Contract, "function", call.Function, "seq", seq, "error", serr)
		return ErrorResponse(serr), label
	}

	ctx, _ = withCall(ctx, nil, call)
	resp := d.Dispatch(ctx, stub, call.Function, call.Args)

	if !resp.OK() || m.ReadOnly {
		if err := stub.Rollback(); err != nil {
			e.logger.Warn("rollback failed", "tx_id", txID, "error", err)
		}
		return resp, label
	}

	if stub.UsedRichQuery() {
		e.logger.Debug("committing transaction that read advisory rich query results", "tx_id", txID)
	}
	if err := stub.Commit(); err != nil {
		serr := NewStoreError("commit", "", err)
		e.logger.Error("dispatch failed", "contract", call.Contract, "function", call.Function, "seq", seq, "error", serr)
		return ErrorResponse(serr), label
	}
	e.logger.Debug("committed", "contract", call.Contract, "function", call.Function, "seq", seq, "tx_id", txID)
	return resp, label
}

// InvokeIn dispatches a nested call inside the caller's transaction.
// args carries the function name first. Implements ledger.Invoker.
func (e *Engine) InvokeIn(ctx context.Context, stub *ledger.Stub, contract string, args []string) ir.Response {
	d, ok := e.contracts[contract]
	if !ok {
		return ErrorResponse(&UnknownContractError{Contract: contract})
	}
	function, rest, err := ParseArgs(args)
	if err != nil {
		return ErrorResponse(err)
	}
	ctx, err = e.enterNested(ctx, ir.Call{Contract: contract, Function: function, Args: rest})
	if err != nil {
		e.logger.Warn("nested call rejected", "contract", contract, "function", function, "error", err)
		return ErrorResponse(err)
	}
	return d.Dispatch(ctx, stub, function, rest)
}
