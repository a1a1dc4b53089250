package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/validate"
)

// Phase is a dispatch state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseParsed
	PhaseResolved
	PhaseValidated
	PhaseExecuted
	PhaseResponded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseParsed:
		return "parsed"
	case PhaseResolved:
		return "resolved"
	case PhaseValidated:
		return "validated"
	case PhaseExecuted:
		return "executed"
	case PhaseResponded:
		return "responded"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParseArgs splits a raw argument list whose first element is the function
// name.
func ParseArgs(raw []string) (string, []string, error) {
	if len(raw) == 0 || raw[0] == "" {
		return "", nil, ErrMissingFunction
	}
	args := make([]string, len(raw)-1)
	copy(args, raw[1:])
	return raw[0], args, nil
}

// Dispatcher runs calls for one contract.
type Dispatcher struct {
	contract string
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger uses slog.Default().
func NewDispatcher(contract string, registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{contract: contract, registry: registry, logger: logger}
}

// Contract returns the contract name.
func (d *Dispatcher) Contract() string { return d.contract }

// Registry returns the contract's method registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch resolves, validates and executes one call. It never returns an
// error: every failure becomes an error envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, stub StateStore, function string, args []string) ir.Response {
	if function == "" {
		return d.fail(PhaseIdle, function, ErrMissingFunction)
	}
	phase := PhaseParsed
	d.logger.Debug("dispatch",
		"contract", d.contract,
		"function", function,
		"args", args,
		"tx_id", stub.TxID(),
	)

	m, ok := d.registry.Resolve(function)
	if !ok {
		return d.fail(phase, function, &UnknownMethodError{Contract: d.contract, Function: function})
	}
	phase = PhaseResolved

	if err := validate.Check(args, m.Schema); err != nil {
		return d.fail(phase, function, err)
	}
	phase = PhaseValidated

	payload, err := d.execute(ctx, m, stub, args)
	if err != nil {
		return d.fail(phase, function, err)
	}
	phase = PhaseExecuted

	d.logger.Info("dispatch succeeded",
		"contract", d.contract,
		"function", function,
		"phase", phase.String(),
		"payload_bytes", len(payload),
	)
	return ir.Success(payload)
}

func (d *Dispatcher) execute(ctx context.Context, m Method, stub StateStore, args []string) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", m.Name, r)
		}
	}()
	return m.Handler(ctx, stub, args)
}

func (d *Dispatcher) fail(phase Phase, function string, err error) ir.Response {
	resp := ErrorResponse(err)
	d.logger.Error("dispatch failed",
		"contract", d.contract,
		"function", function,
		"phase", phase.String(),
		"status", resp.Status,
		"error", resp.Message,
	)
	return resp
}
