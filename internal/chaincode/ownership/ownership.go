// Package ownership implements the ownership registry contract. Records are
// keyed by the composite key ("ownership", owner, isbn).
package ownership

import (
	"context"

	"github.com/roach88/bookledger/internal/chaincode"
	"github.com/roach88/bookledger/internal/compositekey"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/queryir"
)

// Name is the contract name.
const Name = "ownership"

// ObjectType prefixes every ownership key.
const ObjectType = "ownership"

// Record is a stored ownership.
type Record struct {
	Owner     string `json:"owner"`
	ISBN      string `json:"isbn"`
	CreatedAt string `json:"createdAt"`
}

// Key builds the store key of (owner, isbn).
func Key(owner, isbn string) (string, error) {
	return compositekey.Build(ObjectType, []string{owner, isbn})
}

// Handlers returns the function table.
func Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		"getOwnership":     getOwnership,
		"getOwnershipList": getOwnershipList,
		"createOwnership":  createOwnership,
		"deleteOwnership":  deleteOwnership,
	}
}

func displayKey(owner, isbn string) string {
	return owner + " " + isbn
}

func getOwnership(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	key, err := Key(args[0], args[1])
	if err != nil {
		return nil, err
	}
	raw, ok, err := stub.GetState(ctx, key)
	if err != nil {
		return nil, engine.NewStoreError("get", key, err)
	}
	if !ok {
		return nil, &engine.NotFoundError{Kind: "ownership", Key: displayKey(args[0], args[1])}
	}
	return raw, nil
}

// getOwnershipList args: owner, isbn, limit, offset.
//
// An owner-only listing without paging walks the owner's key prefix, which
// the ledger re-validates at commit. Every other shape is a rich query.
func getOwnershipList(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	owner, isbn, limit, offset := args[0], args[1], args[2], args[3]

	if owner != "" && isbn == "" && limit == "" && offset == "" {
		it, err := stub.GetStateByPartialCompositeKey(ctx, ObjectType, []string{owner})
		if err != nil {
			return nil, engine.NewStoreError("partial key scan", owner, err)
		}
		return engine.DrainJSON(ctx, it, nil)
	}

	doc := queryir.Build([]queryir.Filter{
		queryir.Match("owner", owner),
		queryir.Match("isbn", isbn),
	}, limit, offset)
	it, err := stub.GetQueryResult(ctx, doc)
	if err != nil {
		return nil, engine.NewStoreError("query", "", err)
	}
	return engine.DrainJSON(ctx, it, nil)
}

func createOwnership(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	owner, isbn := args[0], args[1]
	key, err := Key(owner, isbn)
	if err != nil {
		return nil, err
	}
	exists, err := chaincode.Exists(ctx, stub, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.AlreadyExistsError{Kind: "ownership", Key: displayKey(owner, isbn)}
	}
	return chaincode.Store(ctx, stub, key, Record{
		Owner:     owner,
		ISBN:      isbn,
		CreatedAt: chaincode.Timestamp(stub),
	})
}

func deleteOwnership(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	owner, isbn := args[0], args[1]
	key, err := Key(owner, isbn)
	if err != nil {
		return nil, err
	}
	exists, err := chaincode.Exists(ctx, stub, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &engine.NotFoundError{Kind: "ownership", Key: displayKey(owner, isbn)}
	}
	return nil, chaincode.Remove(ctx, stub, key)
}
