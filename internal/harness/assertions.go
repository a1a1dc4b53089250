package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/bookledger/internal/compositekey"
	"github.com/roach88/bookledger/internal/ledger"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event.Line())
		}
	}

	return buf.String()
}

// assertTraceContains checks that the trace holds the call, with exactly
// the given args when args are specified.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Call != assertion.Call {
			continue
		}
		if assertion.Args == nil || reflect.DeepEqual(event.Args, assertion.Args) {
			return nil
		}
	}

	expected := "call " + assertion.Call
	if assertion.Args != nil {
		expected += fmt.Sprintf(" with args %q", assertion.Args)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if calls appear in the specified order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// First position of each expected call, 1-indexed.
	positions := make(map[string]int)
	for i, event := range trace {
		for _, expected := range assertion.Calls {
			if event.Call == expected && positions[expected] == 0 {
				positions[expected] = i + 1
			}
		}
	}

	for _, call := range assertion.Calls {
		if positions[call] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all calls present: %v", assertion.Calls),
				Actual:   fmt.Sprintf("missing call: %s", call),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Calls); i++ {
		prev := assertion.Calls[i-1]
		curr := assertion.Calls[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("calls in order: %v", assertion.Calls),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the call appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Call == assertion.Call {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Call),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// storeKey resolves the key an assertion addresses.
func storeKey(a Assertion) (string, error) {
	if a.ObjectType != "" {
		return compositekey.Build(a.ObjectType, a.Attrs)
	}
	return a.Key, nil
}

// describeKey renders a key for messages. Composite keys carry NUL bytes.
func describeKey(a Assertion) string {
	if a.ObjectType != "" {
		return a.Contract + ":" + a.ObjectType + "(" + strings.Join(a.Attrs, ", ") + ")"
	}
	return a.Contract + ":" + a.Key
}

// assertFinalState checks the committed record under a key.
func assertFinalState(ctx context.Context, l *ledger.Ledger, assertion Assertion) error {
	key, err := storeKey(assertion)
	if err != nil {
		return err
	}

	raw, ok, err := l.Get(ctx, assertion.Contract, key)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("read %s", describeKey(assertion)),
			Actual:   fmt.Sprintf("ledger error: %v", err),
		}
	}

	if assertion.Absent {
		if ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("no record at %s", describeKey(assertion)),
				Actual:   string(raw),
			}
		}
		return nil
	}

	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record at %s", describeKey(assertion)),
			Actual:   "record not found",
		}
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("JSON object at %s", describeKey(assertion)),
			Actual:   fmt.Sprintf("%q: %v", raw, err),
		}
	}
	if msg := matchFields(assertion.Expect, got); msg != "" {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("fields %s at %s", formatFields(assertion.Expect), describeKey(assertion)),
			Actual:   msg,
		}
	}
	return nil
}

// assertHistory checks how many history entries a key has.
func assertHistory(ctx context.Context, l *ledger.Ledger, assertion Assertion) error {
	key, err := storeKey(assertion)
	if err != nil {
		return err
	}
	history, err := l.History(ctx, assertion.Contract, key)
	if err != nil {
		return fmt.Errorf("read history of %s: %w", describeKey(assertion), err)
	}
	if len(history) != assertion.Count {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("%d history entries at %s", assertion.Count, describeKey(assertion)),
			Actual:   fmt.Sprintf("%d entries", len(history)),
		}
	}
	return nil
}

// matchFields checks that got holds every field of expected (subset
// match). Returns a description of the first mismatch, or "".
func matchFields(expected, got map[string]any) string {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		actual, exists := got[k]
		if !exists {
			return fmt.Sprintf("field %q missing", k)
		}
		if !valuesEqual(expected[k], actual) {
			return fmt.Sprintf("field %q = %v, want %v", k, actual, expected[k])
		}
	}
	return ""
}

// valuesEqual compares a YAML-decoded value with a JSON-decoded one.
// Numbers differ in Go type between the two decoders, so scalars compare
// by their printed form.
func valuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	switch expected.(type) {
	case map[string]any, []any:
		return reflect.DeepEqual(normalize(expected), normalize(actual))
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

// normalize round-trips v through JSON so YAML and JSON values compare.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// formatFields renders expected fields with sorted keys.
func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

// AssertionContext provides ledger access for state assertions.
type AssertionContext struct {
	Ledger *ledger.Ledger
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertHistory:
			if actx == nil || actx.Ledger == nil {
				err = fmt.Errorf("assertion[%d]: %s requires ledger context", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Ledger, assertion)
			} else {
				err = assertHistory(actx.Ctx, actx.Ledger, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
