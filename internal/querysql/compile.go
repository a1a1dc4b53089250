package querysql

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/bookledger/internal/queryir"
)

// SQLCompiler compiles rich query documents to parameterized SQLite over the
// ledger state table.
//
// CRITICAL: ALL queries include ORDER BY key for deterministic results.
// CRITICAL: All values and JSON paths are parameterized (never interpolated).
type SQLCompiler struct {
	// Table is the state table name. Defaults to "state".
	Table string
}

// NewSQLCompiler creates a new SQLCompiler for the ledger state table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "state"}
}

// Compile converts a Document scoped to namespace into parameterized SQL.
// Returns (sql, params, error) tuple. The query selects (key, value) rows.
//
// Records that are not valid JSON never match an equality or presence
// clause; they do match an empty selector and an absence clause, and are
// left for the caller to skip when decoding.
func (c *SQLCompiler) Compile(namespace string, doc queryir.Document) (string, []any, error) {
	if err := queryir.Validate(doc); err != nil {
		return "", nil, fmt.Errorf("compile query: %w", err)
	}

	var b strings.Builder
	params := []any{namespace}
	fmt.Fprintf(&b, "SELECT key, value FROM %s WHERE namespace = ?", c.table())

	for _, clause := range doc.Selector {
		switch cl := clause.(type) {
		case queryir.Equals:
			b.WriteString(" AND (CASE WHEN json_valid(value) THEN json_extract(value, ?) END) = ?")
			params = append(params, jsonPath(cl.Field), cl.Value)
		case queryir.Exists:
			if cl.Present {
				b.WriteString(" AND (CASE WHEN json_valid(value) THEN json_type(value, ?) END) IS NOT NULL")
			} else {
				b.WriteString(" AND (CASE WHEN json_valid(value) THEN json_type(value, ?) END) IS NULL")
			}
			params = append(params, jsonPath(cl.Field))
		default:
			return "", nil, fmt.Errorf("unsupported clause type: %T", clause)
		}
	}

	// MANDATORY: Always add ORDER BY
	b.WriteString(" ORDER BY key ASC")

	if doc.Limit != nil || doc.Skip != nil {
		limit := int64(-1)
		if doc.Limit != nil {
			n, err := toParam(*doc.Limit, "limit")
			if err != nil {
				return "", nil, err
			}
			limit = n
		}
		b.WriteString(" LIMIT ?")
		params = append(params, limit)
	}
	if doc.Skip != nil {
		n, err := toParam(*doc.Skip, "skip")
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" OFFSET ?")
		params = append(params, n)
	}

	return b.String(), params, nil
}

func (c *SQLCompiler) table() string {
	if c.Table == "" {
		return "state"
	}
	return c.Table
}

// jsonPath quotes a top-level member name for json_extract. Field names are
// already validated to contain no quotes or backslashes.
func jsonPath(field string) string {
	return `$."` + field + `"`
}

func toParam(n uint64, what string) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("compile query: %s %d out of range", what, n)
	}
	return int64(n), nil
}
