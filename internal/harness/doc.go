// Package harness runs contract scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: lending_round_trip
//	description: "A book is lent and returned"
//	setup:
//	  - call: user.createUser
//	    args: ["alice", "example.com", "Alice"]
//	flow:
//	  - call: trading.createTrading
//	    args: ["1111...", "alice@example.com", "bob@example.com", "9784274068560", "2024-03-01T09:00:00Z"]
//	    expect:
//	      status: 200
//	      payload: { borrower: "bob@example.com" }
//	assertions:
//	  - type: final_state
//	    contract: trading
//	    key: "1111..."
//	    expect: { returnedAt: "2024-03-08T09:00:00Z" }
//
// Setup calls must succeed. Flow calls are checked against their expect
// clause, if any.
//
// # Assertion Types
//
//   - trace_contains: a call appears in the trace, optionally with exact args
//   - trace_order: calls appear in the given order
//   - trace_count: a call appears exactly N times
//   - final_state: the committed record under a key has the expected fields,
//     or is absent
//   - history: a key has exactly N history entries
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory ledger, sequential transaction ids and a
// clock that starts at testutil.BaseTime and advances one second per
// transaction, so the same scenario always yields the same trace.
package harness
