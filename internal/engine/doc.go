// Package engine routes contract calls to their handlers.
//
// The engine is the core of bookledger: it receives a call, resolves the
// function in the contract's immutable registry, validates the positional
// arguments, runs the handler inside one ledger transaction and returns a
// uniform response envelope.
//
// ARCHITECTURE:
//
// Dispatch State Machine:
// Every call moves through the same phases:
//
//	Idle → Parsed → Resolved → Validated → Executed → Responded
//
// Any failure jumps straight to Responded with an error envelope. Failures
// are never raised past the dispatcher: unknown functions, bad arguments,
// handler errors and handler panics all become a Response.
//
// Transactions:
// Engine.Invoke begins one ledger transaction per call, scoped to the
// contract's namespace. The transaction commits only when the response is
// a success and the function is not read-only; otherwise it rolls back, so
// a failed call leaves no partial writes. A handler calling another
// contract through StateStore.InvokeContract shares the caller's
// transaction.
//
// Nested Calls:
// Nested calls are bounded two ways. A call identical to one already on the
// call chain fails with CallCycleError; a chain deeper than the configured
// limit (WithMaxCallDepth) fails with CallDepthExceededError. The calling
// handler receives the failure as a 500 envelope.
//
// Error Taxonomy:
// Handlers return typed errors (NotFoundError, AlreadyExistsError,
// ConflictError, StoreError, plus validate.ValidationError and
// compositekey.MalformedKeyError from the leaf packages). StatusOf maps them
// to envelope status codes:
//
//	200 success
//	400 validation error, malformed key
//	404 unknown function, unknown contract, not found
//	409 already exists, conflict
//	500 store error, call cycle, call depth and anything else
//
// CRITICAL PATTERNS:
//
// Registries are built once and never mutated; Engine.Register rejects a
// contract name that is already taken.
package engine
