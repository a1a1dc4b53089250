package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
	"github.com/roach88/bookledger/internal/queryir"
	"github.com/roach88/bookledger/internal/validate"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func nonEmpty(s string) bool { return s != "" }

type kvRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// kvMethods is a small contract exercising every dispatch path.
func kvMethods() []Method {
	return []Method{
		{
			Name:   "put",
			Schema: validate.Schema{nonEmpty, nonEmpty},
			Handler: func(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
				rec, _ := json.Marshal(kvRecord{Key: args[0], Value: args[1]})
				if err := stub.PutState(ctx, args[0], rec); err != nil {
					return nil, NewStoreError("put", args[0], err)
				}
				return rec, nil
			},
		},
		{
			Name:     "get",
			Schema:   validate.Schema{nonEmpty},
			ReadOnly: true,
			Handler: func(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
				v, ok, err := stub.GetState(ctx, args[0])
				if err != nil {
					return nil, NewStoreError("get", args[0], err)
				}
				if !ok {
					return nil, &NotFoundError{Kind: "entry", Key: args[0]}
				}
				return v, nil
			},
		},
		{
			Name:   "putThenFail",
			Schema: validate.Schema{nonEmpty},
			Handler: func(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
				if err := stub.PutState(ctx, args[0], []byte(`{}`)); err != nil {
					return nil, err
				}
				return nil, errors.New("handler gave up")
			},
		},
		{
			Name:   "boom",
			Schema: validate.Schema{},
			Handler: func(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
				panic("kaboom")
			},
		},
		{
			Name:     "list",
			Schema:   validate.Schema{validate.Optional(nonEmpty)},
			ReadOnly: true,
			Handler: func(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
				doc := queryir.Build([]queryir.Filter{queryir.Match("value", args[0])}, "", "")
				it, err := stub.GetQueryResult(ctx, doc)
				if err != nil {
					return nil, NewStoreError("query", "", err)
				}
				return DrainJSON(ctx, it, nil)
			},
		},
		{
			Name:   "relay",
			Schema: validate.Schema{nonEmpty, nonEmpty, validate.Optional(nonEmpty)},
			Handler: func(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
				nested := []string{args[1]}
				if args[2] != "" {
					nested = append(nested, args[2])
				}
				resp := stub.InvokeContract(ctx, args[0], nested)
				if !resp.OK() {
					return nil, &NotFoundError{Kind: "relay target", Key: args[2]}
				}
				return resp.Payload, nil
			},
		},
	}
}

func setupTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// setupTestEngine hosts the kv contract twice, as "kv" and "mirror".
func setupTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *ledger.Ledger, *bytes.Buffer) {
	t.Helper()
	l := setupTestLedger(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	base := []EngineOption{
		WithLogger(logger),
		WithTimeSource(func() time.Time { return fixedTime }),
	}
	e := New(l, append(base, opts...)...)
	require.NoError(t, e.Register("kv", kvMethods()))
	require.NoError(t, e.Register("mirror", kvMethods()))
	return e, l, &logs
}

func call(contract, function string, args ...string) ir.Call {
	if args == nil {
		args = []string{}
	}
	return ir.Call{Contract: contract, Function: function, Args: args}
}
