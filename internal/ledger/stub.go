package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/bookledger/internal/compositekey"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/queryir"
	"github.com/roach88/bookledger/internal/querysql"
)

// Invoker runs a function of another contract inside an existing
// transaction. The engine implements it.
type Invoker interface {
	InvokeIn(ctx context.Context, stub *Stub, contract string, args []string) ir.Response
}

// txState is shared by every Stub view of one transaction.
type txState struct {
	richQueries int
	finished    bool
}

// Stub is a contract's view of one ledger transaction, scoped to the
// contract's namespace.
type Stub struct {
	tx        *sql.Tx
	namespace string
	txID      string
	timestamp time.Time
	invoker   Invoker
	compiler  *querysql.SQLCompiler
	logger    *slog.Logger
	shared    *txState
}

// Namespace returns the namespace reads and writes are scoped to.
func (s *Stub) Namespace() string { return s.namespace }

// TxID returns the transaction id.
func (s *Stub) TxID() string { return s.txID }

// TxTimestamp returns the transaction timestamp in UTC.
func (s *Stub) TxTimestamp() time.Time { return s.timestamp }

// WithNamespace returns a view of the same transaction scoped to namespace.
func (s *Stub) WithNamespace(namespace string) *Stub {
	cp := *s
	cp.namespace = namespace
	return &cp
}

// UsedRichQuery reports whether any view of this transaction ran a rich
// query. Such results are not re-validated at commit.
func (s *Stub) UsedRichQuery() bool { return s.shared.richQueries > 0 }

// GetState returns the value stored under key and whether it exists.
func (s *Stub) GetState(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	var value []byte
	err := s.tx.QueryRowContext(ctx,
		`SELECT value FROM state WHERE namespace = ? AND key = ?`,
		s.namespace, []byte(key),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get state: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// PutState writes value under key and appends a history entry.
func (s *Stub) PutState(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO state (namespace, key, value, tx_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, tx_id = excluded.tx_id
	`, s.namespace, []byte(key), string(value), s.txID)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return s.appendHistory(ctx, key, sql.NullString{String: string(value), Valid: true}, false)
}

// DelState removes key. Deleting an absent key is a no-op and leaves no
// history entry.
func (s *Stub) DelState(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	res, err := s.tx.ExecContext(ctx,
		`DELETE FROM state WHERE namespace = ? AND key = ?`,
		s.namespace, []byte(key),
	)
	if err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	if n == 0 {
		return nil
	}
	return s.appendHistory(ctx, key, sql.NullString{}, true)
}

func (s *Stub) appendHistory(ctx context.Context, key string, value sql.NullString, isDelete bool) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO history (namespace, key, value, is_delete, tx_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.namespace, []byte(key), value, isDelete, s.txID, s.timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// GetStateByRange iterates simple keys in [startKey, endKey). An empty
// startKey or endKey leaves that side open. Composite keys are never
// returned and may not be used as bounds.
func (s *Stub) GetStateByRange(ctx context.Context, startKey, endKey string) (*Iterator, error) {
	if compositekey.IsComposite(startKey) || compositekey.IsComposite(endKey) {
		return nil, &compositekey.MalformedKeyError{Key: startKey + ".." + endKey, Reason: "composite key used as range bound"}
	}
	lower := []byte(startKey)
	if startKey == "" {
		lower = []byte{0x01}
	}
	query := `SELECT key, value FROM state WHERE namespace = ? AND key >= ?`
	args := []any{s.namespace, lower}
	if endKey != "" {
		query += ` AND key < ?`
		args = append(args, []byte(endKey))
	}
	query += ` ORDER BY key ASC`
	return s.query(ctx, query, args...)
}

// GetStateByPartialCompositeKey iterates composite keys of objectType whose
// leading attributes equal attrs.
func (s *Stub) GetStateByPartialCompositeKey(ctx context.Context, objectType string, attrs []string) (*Iterator, error) {
	start, end, err := compositekey.PartialRange(objectType, attrs)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `
		SELECT key, value FROM state
		WHERE namespace = ? AND key >= ? AND key < ?
		ORDER BY key ASC
	`, s.namespace, []byte(start), []byte(end))
}

// GetQueryResult runs a rich query over the namespace's JSON records.
func (s *Stub) GetQueryResult(ctx context.Context, doc queryir.Document) (*Iterator, error) {
	query, args, err := s.compiler.Compile(s.namespace, doc)
	if err != nil {
		return nil, err
	}
	s.shared.richQueries++
	s.logger.Debug("rich query", "namespace", s.namespace, "query", doc.String(), "tx_id", s.txID)
	return s.query(ctx, query, args...)
}

// GetHistoryForKey returns the committed history of key plus any writes
// already made in this transaction, oldest first.
func (s *Stub) GetHistoryForKey(ctx context.Context, key string) ([]ir.HistoryEntry, error) {
	return readHistory(ctx, s.tx, s.namespace, key)
}

// InvokeContract calls a function of another contract in this transaction.
func (s *Stub) InvokeContract(ctx context.Context, contract string, args []string) ir.Response {
	if s.invoker == nil {
		return ir.Failure(ir.StatusInternal, "cross-contract invocation is not available")
	}
	return s.invoker.InvokeIn(ctx, s.WithNamespace(contract), contract, args)
}

func (s *Stub) query(ctx context.Context, query string, args ...any) (*Iterator, error) {
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	return newIterator(rows, s.namespace), nil
}

// Commit makes every write of the transaction durable.
func (s *Stub) Commit() error {
	if s.shared.finished {
		return sql.ErrTxDone
	}
	s.shared.finished = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the transaction. Safe to call after Commit.
func (s *Stub) Rollback() error {
	if s.shared.finished {
		return nil
	}
	s.shared.finished = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
