package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/bookledger/internal/ir"
)

// Iterator yields ledger query results. *ledger.Iterator implements it.
type Iterator interface {
	HasNext() bool
	Next() (*ir.KV, error)
	Close() error
}

// Drain reads every item from it, keeping values that decode as JSON
// objects. An undecodable item is logged and skipped. The iterator is
// closed on every path. The result is never nil.
func Drain(ctx context.Context, it Iterator, logger *slog.Logger) ([]json.RawMessage, error) {
	return DrainAs(ctx, it, logger, func(kv *ir.KV) (json.RawMessage, error) {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(kv.Value, &probe); err != nil {
			return nil, err
		}
		return json.RawMessage(kv.Value), nil
	})
}

// DrainJSON drains it and encodes the records as one JSON array.
func DrainJSON(ctx context.Context, it Iterator, logger *slog.Logger) ([]byte, error) {
	records, err := Drain(ctx, it, logger)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return out, nil
}

// DrainAs reads every item from it through decode. Items decode rejects are
// logged at Warn and skipped; an iterator error or cancelled context stops
// the drain and is returned.
func DrainAs[T any](ctx context.Context, it Iterator, logger *slog.Logger, decode func(*ir.KV) (T, error)) ([]T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if cerr := it.Close(); cerr != nil {
			logger.Warn("close iterator", "error", cerr)
		}
	}()

	out := []T{}
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kv, err := it.Next()
		if err != nil {
			return nil, NewStoreError("iterate", "", err)
		}
		item, err := decode(kv)
		if err != nil {
			logger.Warn("skipping undecodable record",
				"namespace", kv.Namespace,
				"key", kv.Key,
				"error", err,
			)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
