// Package ir provides the shared value types for bookledger.
//
// This package contains type definitions and call identity hashing. All other internal packages
// import ir; ir imports nothing internal. Calls, responses and the compiled
// contract manifest live here so the engine, the ledger and the outer
// surfaces (CLI, gateway, harness) agree on one vocabulary.
//
// Key design constraints:
//   - Arguments are always strings; typing happens in validation
//   - Payloads are opaque bytes, JSON by convention
//   - All JSON tags use snake_case
package ir
