package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/bookledger/internal/contracts"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
	"github.com/roach88/bookledger/internal/testutil"
)

// Harness executes scenario steps against one engine.
type Harness struct {
	ledger *ledger.Ledger
	engine *engine.Engine
	seq    int64
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory ledger with every contract
// registered. Execution flow:
// 1. Execute setup steps; any failure aborts the run
// 2. Execute flow steps, checking expect clauses
// 3. Evaluate assertions against the trace and the ledger
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext is Run with a context and a logger. A nil logger discards
// output.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	l, err := ledger.OpenConfig(ledger.DefaultConfig(":memory:"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer l.Close()

	clock := testutil.NewDeterministicClock(testutil.BaseTime, time.Second)
	eng := engine.New(l,
		engine.WithTxIDGenerator(testutil.NewSequentialTxIDs("tx")),
		engine.WithTimeSource(clock.Now),
		engine.WithLogger(logger),
	)
	if err := contracts.RegisterAll(eng); err != nil {
		return nil, fmt.Errorf("failed to register contracts: %w", err)
	}

	h := &Harness{ledger: l, engine: eng, logger: logger}
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{Ledger: l, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) call(ctx context.Context, phase string, step Step) (TraceEvent, ir.Response, error) {
	contract, function, err := step.Split()
	if err != nil {
		return TraceEvent{}, ir.Response{}, err
	}
	args := step.Args
	if args == nil {
		args = []string{}
	}

	resp := h.engine.Invoke(ctx, ir.Call{Contract: contract, Function: function, Args: args})
	h.seq++
	event := TraceEvent{
		Seq:     h.seq,
		Phase:   phase,
		Call:    step.Call,
		Args:    args,
		Status:  resp.Status,
		Message: resp.Message,
		Payload: string(resp.Payload),
	}
	return event, resp, nil
}

// executeSetup runs setup steps. A setup step that fails aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []Step, result *Result) error {
	for i, step := range setup {
		event, resp, err := h.call(ctx, "setup", step)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		result.AddTrace(event)
		if !resp.OK() {
			return fmt.Errorf("setup step %d: %s returned %d: %s", i, step.Call, resp.Status, resp.Message)
		}
		h.logger.Debug("setup step completed", "step", i, "call", step.Call)
	}
	return nil
}

// executeFlow runs flow steps and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		event, resp, err := h.call(ctx, "flow", step)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		result.AddTrace(event)

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, resp) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Call, msg))
			}
		}

		h.logger.Debug("flow step completed",
			"step", i,
			"call", step.Call,
			"status", resp.Status,
		)
	}
	return nil
}

// checkExpect compares an envelope against an expect clause.
func checkExpect(exp *Expect, resp ir.Response) []string {
	var errs []string

	want := exp.Status
	if want == 0 {
		want = ir.StatusOK
	}
	if resp.Status != want {
		errs = append(errs, fmt.Sprintf("status: expected %d, got %d (%s)", want, resp.Status, resp.Message))
	}
	if exp.Message != "" && resp.Message != exp.Message {
		errs = append(errs, fmt.Sprintf("message: expected %q, got %q", exp.Message, resp.Message))
	}

	if len(exp.Payload) > 0 {
		var got map[string]any
		if err := json.Unmarshal(resp.Payload, &got); err != nil {
			errs = append(errs, fmt.Sprintf("payload: not a JSON object: %v", err))
		} else if msg := matchFields(exp.Payload, got); msg != "" {
			errs = append(errs, "payload: "+msg)
		}
	}

	if exp.Count != nil {
		var got []json.RawMessage
		if err := json.Unmarshal(resp.Payload, &got); err != nil {
			errs = append(errs, fmt.Sprintf("payload: not a JSON array: %v", err))
		} else if len(got) != *exp.Count {
			errs = append(errs, fmt.Sprintf("count: expected %d, got %d", *exp.Count, len(got)))
		}
	}

	return errs
}
