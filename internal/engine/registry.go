package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/ledger"
	"github.com/roach88/bookledger/internal/queryir"
	"github.com/roach88/bookledger/internal/validate"
)

// StateStore is the ledger surface a handler sees. *ledger.Stub implements it.
type StateStore interface {
	GetState(ctx context.Context, key string) ([]byte, bool, error)
	PutState(ctx context.Context, key string, value []byte) error
	DelState(ctx context.Context, key string) error
	GetStateByRange(ctx context.Context, startKey, endKey string) (*ledger.Iterator, error)
	GetStateByPartialCompositeKey(ctx context.Context, objectType string, attrs []string) (*ledger.Iterator, error)
	GetQueryResult(ctx context.Context, doc queryir.Document) (*ledger.Iterator, error)
	GetHistoryForKey(ctx context.Context, key string) ([]ir.HistoryEntry, error)
	InvokeContract(ctx context.Context, contract string, args []string) ir.Response
	TxID() string
	TxTimestamp() time.Time
}

// HandlerFunc runs one contract function against validated arguments and
// returns the success payload.
type HandlerFunc func(ctx context.Context, stub StateStore, args []string) ([]byte, error)

// Method binds a function name to its argument schema and handler.
type Method struct {
	Name     string
	Schema   validate.Schema
	Handler  HandlerFunc
	ReadOnly bool
}

// Registry is an immutable name → Method table.
type Registry struct {
	methods map[string]Method
	names   []string
}

// NewRegistry builds a registry. Names must be non-empty and unique and
// every method needs a handler.
func NewRegistry(methods []Method) (*Registry, error) {
	r := &Registry{
		methods: make(map[string]Method, len(methods)),
		names:   make([]string, 0, len(methods)),
	}
	for _, m := range methods {
		if m.Name == "" {
			return nil, fmt.Errorf("registry: method with empty name")
		}
		if m.Handler == nil {
			return nil, fmt.Errorf("registry: method %s has no handler", m.Name)
		}
		if _, dup := r.methods[m.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate method %s", m.Name)
		}
		r.methods[m.Name] = m
		r.names = append(r.names, m.Name)
	}
	return r, nil
}

// Resolve returns the method registered under name.
func (r *Registry) Resolve(name string) (Method, bool) {
	m, ok := r.methods[name]
	return m, ok
}

// Names returns method names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
