package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/bookledger/internal/ir"
)

// DefaultMaxCallDepth bounds how deep nested contract calls may go inside
// one transaction.
const DefaultMaxCallDepth = 8

// CallDepthExceededError is returned when a nested call would run deeper
// than the engine allows.
//
// Cycle detection catches a call repeating itself; the depth limit catches
// chains of distinct calls (A -> B -> C -> ...) that never repeat exactly.
type CallDepthExceededError struct {
	Call  string // contract.function of the rejected call
	Depth int
	Limit int
}

func (e *CallDepthExceededError) Error() string {
	return fmt.Sprintf("nested call %s at depth %d exceeds max call depth %d", e.Call, e.Depth, e.Limit)
}

// IsCallDepthExceeded reports whether err is a CallDepthExceededError.
func IsCallDepthExceeded(err error) bool {
	var de *CallDepthExceededError
	return errors.As(err, &de)
}

// WithMaxCallDepth sets the nested call depth limit. Values below 1 allow
// no nested calls at all. Default: DefaultMaxCallDepth.
func WithMaxCallDepth(n int) EngineOption {
	return func(e *Engine) {
		e.maxCallDepth = n
	}
}

// enterNested pushes a nested call onto the chain carried by ctx, checking
// the depth limit and cycles first.
func (e *Engine) enterNested(ctx context.Context, call ir.Call) (context.Context, error) {
	parent := chainFrom(ctx)
	next, frame := withCall(ctx, parent, call)

	if frame.depth > e.maxCallDepth {
		return nil, &CallDepthExceededError{Call: frame.label, Depth: frame.depth, Limit: e.maxCallDepth}
	}
	if parent != nil && parent.find(frame.key) != nil {
		return nil, &CallCycleError{Path: frame.path()}
	}
	return next, nil
}
