package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added history lookup index
const currentSchemaVersion = 1

// ErrEmptyKey is returned when a simple key is empty.
var ErrEmptyKey = errors.New("ledger: key must not be empty")

// Ledger is the durable world state shared by every contract.
type Ledger struct {
	db       *sql.DB
	compiler *querysql.SQLCompiler
	logger   *slog.Logger
}

// Open creates or opens a ledger at path with default settings.
func Open(path string) (*Ledger, error) {
	return OpenConfig(DefaultConfig(path), nil)
}

// OpenConfig creates or opens a ledger. Applies required pragmas and
// migrations automatically. A nil logger uses slog.Default().
//
// This function is idempotent - safe to call multiple times on one path.
func OpenConfig(cfg Config, logger *slog.Logger) (*Ledger, error) {
	cfg.validate()
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps an in-memory database alive for the ledger's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Debug("ledger opened", "path", cfg.Path, "journal_mode", cfg.JournalMode)
	return &Ledger{db: db, compiler: querysql.NewSQLCompiler(), logger: logger}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Stub methods when available.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// TxOptions identifies a transaction and the contract it runs for.
type TxOptions struct {
	Namespace string
	TxID      string
	Timestamp time.Time

	// Invoker serves Stub.InvokeContract. Nil disables cross-contract calls.
	Invoker Invoker
}

// Begin starts a transaction and returns the Stub bound to it. Blocks until
// the connection is free or ctx is done.
func (l *Ledger) Begin(ctx context.Context, opts TxOptions) (*Stub, error) {
	if opts.Namespace == "" {
		return nil, errors.New("ledger: namespace must not be empty")
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Stub{
		tx:        tx,
		namespace: opts.Namespace,
		txID:      opts.TxID,
		timestamp: opts.Timestamp.UTC(),
		invoker:   opts.Invoker,
		compiler:  l.compiler,
		logger:    l.logger,
		shared:    &txState{},
	}, nil
}

// Get reads a committed value outside any transaction.
func (l *Ledger) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var value []byte
	err := l.db.QueryRowContext(ctx,
		`SELECT value FROM state WHERE namespace = ? AND key = ?`,
		namespace, []byte(key),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get state: %w", err)
	}
	return value, true, nil
}

// History returns every committed write to key, oldest first. Returns an
// empty slice (not nil) when the key was never written.
func (l *Ledger) History(ctx context.Context, namespace, key string) ([]ir.HistoryEntry, error) {
	return readHistory(ctx, l.db, namespace, key)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readHistory(ctx context.Context, q queryer, namespace, key string) ([]ir.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tx_id, timestamp, value, is_delete
		FROM history
		WHERE namespace = ? AND key = ?
		ORDER BY seq ASC
	`, namespace, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []ir.HistoryEntry{}
	for rows.Next() {
		var (
			e     ir.HistoryEntry
			value sql.NullString
		)
		if err := rows.Scan(&e.TxID, &e.Timestamp, &value, &e.IsDelete); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if value.Valid {
			e.Value = []byte(value.String)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, cfg Config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", cfg.JournalMode),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the (namespace, key, seq) index used by history lookups.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_key
		ON history(namespace, key, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (l *Ledger) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := l.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
