// Package queryir provides the selector document used for rich state queries.
//
// A Document is the wire-level shape handed to the ledger:
//
//	{"selector": {<field>: <clause>, ...}, "limit": n, "skip": n}
//
// Each selector clause is either an equality match on a string field or an
// existence test ({"$exists": true|false}). Selector entries keep insertion
// order so the serialized form is byte-for-byte deterministic for a given
// filter list; limit and skip are emitted only when set.
//
// ARCHITECTURE:
//
//	[handler filters] → Build → Document → MarshalJSON → ledger
//	                                     → querysql.Compile (SQLite backend)
//
// The ledger treats a Document as a best-effort filter. Results of a rich
// query are advisory: a handler must not assume they are re-checked at
// commit time.
//
// SEALED INTERFACES:
//
// Clause is sealed with a marker method. Only Equals and Exists implement it,
// so backends can switch on clause type exhaustively:
//
//	switch c := clause.(type) {
//	case Equals:
//	    // field = value
//	case Exists:
//	    // field present / absent
//	}
//
// Unsupported operators ($or, $gt, regexes, nested selectors) are rejected by
// Parse rather than silently ignored.
package queryir
