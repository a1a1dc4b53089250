// Package validate checks positional string arguments against fixed
// predicates before any contract handler runs.
//
// A Schema is an ordered list of predicates, one per expected argument.
// Check rejects a call whose argument count differs from the schema length
// before looking at any argument, then reports the first index whose
// predicate fails. Optional wraps a predicate so an empty string also
// passes; absence is encoded as the empty string and never as a shorter
// argument list.
package validate
