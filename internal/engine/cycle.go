package engine

import (
	"context"
	"strings"

	"github.com/roach88/bookledger/internal/ir"
)

// callChain is the stack of calls running inside one transaction, newest
// first. The top-level call has depth 0.
//
// A nested call identical to one already on the chain (same contract,
// function and arguments) would recurse forever: handlers are
// deterministic over the state they read, and the repeated call reads the
// same transaction. Such a call is rejected instead of dispatched.
type callChain struct {
	parent *callChain
	key    string // ir.CallKey of the call
	label  string // contract.function
	depth  int
}

type chainContextKey struct{}

func withCall(ctx context.Context, parent *callChain, call ir.Call) (context.Context, *callChain) {
	c := &callChain{
		parent: parent,
		key:    ir.CallKey(call),
		label:  call.Contract + "." + call.Function,
	}
	if parent != nil {
		c.depth = parent.depth + 1
	}
	return context.WithValue(ctx, chainContextKey{}, c), c
}

func chainFrom(ctx context.Context) *callChain {
	c, _ := ctx.Value(chainContextKey{}).(*callChain)
	return c
}

// find returns the frame running call, or nil.
func (c *callChain) find(key string) *callChain {
	for f := c; f != nil; f = f.parent {
		if f.key == key {
			return f
		}
	}
	return nil
}

// path lists call labels from the top-level call down to c.
func (c *callChain) path() []string {
	var out []string
	for f := c; f != nil; f = f.parent {
		out = append(out, f.label)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// CallCycleError reports a nested call that repeats a call already running
// in the same transaction.
type CallCycleError struct {
	Path []string // top-level call first, repeated call last
}

func (e *CallCycleError) Error() string {
	return "call cycle detected: " + strings.Join(e.Path, " -> ")
}
