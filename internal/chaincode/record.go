// Package chaincode holds the record helpers shared by the domain
// contracts under it.
package chaincode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/bookledger/internal/engine"
)

// Load reads the record under key into a T. A missing key is a
// NotFoundError for kind.
func Load[T any](ctx context.Context, stub engine.StateStore, kind, key string) (T, []byte, error) {
	var rec T
	raw, ok, err := stub.GetState(ctx, key)
	if err != nil {
		return rec, nil, engine.NewStoreError("get", key, err)
	}
	if !ok {
		return rec, nil, &engine.NotFoundError{Kind: kind, Key: key}
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, nil, fmt.Errorf("decode %s %s: %w", kind, key, err)
	}
	return rec, raw, nil
}

// Exists reports whether key holds a record.
func Exists(ctx context.Context, stub engine.StateStore, key string) (bool, error) {
	_, ok, err := stub.GetState(ctx, key)
	if err != nil {
		return false, engine.NewStoreError("get", key, err)
	}
	return ok, nil
}

// Store encodes rec, writes it under key and returns the encoded bytes.
func Store(ctx context.Context, stub engine.StateStore, key string, rec any) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := stub.PutState(ctx, key, raw); err != nil {
		return nil, engine.NewStoreError("put", key, err)
	}
	return raw, nil
}

// Remove deletes key.
func Remove(ctx context.Context, stub engine.StateStore, key string) error {
	if err := stub.DelState(ctx, key); err != nil {
		return engine.NewStoreError("delete", key, err)
	}
	return nil
}

// Timestamp formats the transaction time the way records store it.
func Timestamp(stub engine.StateStore) string {
	return stub.TxTimestamp().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
