// Package ledger provides the SQLite-backed world state that contracts read
// and write.
//
// The ledger keeps:
//   - State: latest value per (namespace, key), one namespace per contract
//   - History: append-only log of every committed put and delete
//
// # Transactions
//
// Every dispatch runs inside one SQL transaction obtained from Begin. The
// returned Stub is the only handle a contract sees. Nothing written through
// a Stub is visible to other callers until Commit; Rollback discards it.
// Cross-contract invocation through Stub.InvokeContract reuses the caller's
// transaction with the callee's namespace.
//
// # Deterministic Query Results
//
//   - Every read query orders by key ascending (bytewise)
//   - Range queries are half-open: [start, end)
//   - Plain range queries never return composite keys
//
// Rich queries are evaluated with SQLite JSON functions and are advisory:
// nothing re-checks their results at commit time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: from Config, 5s by default
//   - One open connection: SQLite has a single writer, and transactions
//     are serialized by the pool
package ledger
