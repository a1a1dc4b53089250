package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bookledger/internal/ir"
)

// ErrIteratorExhausted is returned by Next after the last item.
var ErrIteratorExhausted = errors.New("ledger: iterator exhausted")

// Iterator streams (key, value) rows from a state query in key order.
// Callers must Close it; Close is idempotent.
type Iterator struct {
	rows      *sql.Rows
	namespace string
	next      *ir.KV
	err       error
	done      bool
	closed    bool
}

func newIterator(rows *sql.Rows, namespace string) *Iterator {
	return &Iterator{rows: rows, namespace: namespace}
}

// HasNext reports whether Next will return an item or an error.
func (it *Iterator) HasNext() bool {
	if it.next != nil || it.err != nil {
		return true
	}
	if it.done || it.closed {
		return false
	}
	if !it.rows.Next() {
		it.done = true
		if err := it.rows.Err(); err != nil {
			it.err = fmt.Errorf("iterate state: %w", err)
			return true
		}
		return false
	}
	var (
		key   []byte
		value []byte
	)
	if err := it.rows.Scan(&key, &value); err != nil {
		it.err = fmt.Errorf("scan state: %w", err)
		it.done = true
		return true
	}
	it.next = &ir.KV{Namespace: it.namespace, Key: string(key), Value: value}
	return true
}

// Next returns the next item.
func (it *Iterator) Next() (*ir.KV, error) {
	if !it.HasNext() {
		return nil, ErrIteratorExhausted
	}
	if it.err != nil {
		err := it.err
		it.err = nil
		return nil, err
	}
	kv := it.next
	it.next = nil
	return kv, nil
}

// Close releases the underlying rows.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.next = nil
	return it.rows.Close()
}
