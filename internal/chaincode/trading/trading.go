// Package trading implements the lending contract. A trading records that
// an owner lent a book to a borrower and, later, that it came back.
// Tradings are keyed by id.
package trading

import (
	"context"
	"fmt"

	"github.com/roach88/bookledger/internal/chaincode"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/queryir"
)

// Name is the contract name.
const Name = "trading"

// OwnershipContract is consulted to confirm the owner holds the book.
const OwnershipContract = "ownership"

const kind = "trading"

// Record is a stored trading.
type Record struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	Borrower   string `json:"borrower"`
	ISBN       string `json:"isbn"`
	LendAt     string `json:"lendAt"`
	ReturnedAt string `json:"returnedAt,omitempty"`
}

// Returned reports whether the book has come back.
func (r Record) Returned() bool { return r.ReturnedAt != "" }

// Handlers returns the function table.
func Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		"getTrading":          getTrading,
		"getTradingList":      getTradingList,
		"createTrading":       createTrading,
		"markTradingReturned": markTradingReturned,
		"cancelTrading":       cancelTrading,
	}
}

func getTrading(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	_, raw, err := chaincode.Load[Record](ctx, stub, kind, args[0])
	return raw, err
}

// getTradingList args: owner, borrower, isbn, isReturned, limit, offset.
func getTradingList(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	doc := queryir.Build([]queryir.Filter{
		queryir.Match("owner", args[0]),
		queryir.Match("borrower", args[1]),
		queryir.Match("isbn", args[2]),
		queryir.Presence("returnedAt", args[3]),
	}, args[4], args[5])

	it, err := stub.GetQueryResult(ctx, doc)
	if err != nil {
		return nil, engine.NewStoreError("query", "", err)
	}
	return engine.DrainJSON(ctx, it, nil)
}

// createTrading args: id, owner, borrower, isbn, lendAt. The owner must
// hold an ownership of isbn.
func createTrading(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id, owner, borrower, isbn := args[0], args[1], args[2], args[3]

	exists, err := chaincode.Exists(ctx, stub, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.AlreadyExistsError{Kind: kind, Key: id}
	}
	if owner == borrower {
		return nil, &engine.ConflictError{Kind: kind, Key: id, Reason: "has the same owner and borrower"}
	}

	resp := stub.InvokeContract(ctx, OwnershipContract, []string{"getOwnership", owner, isbn})
	switch {
	case resp.Status == ir.StatusNotFound:
		return nil, &engine.NotFoundError{Kind: "ownership", Key: owner + " " + isbn}
	case !resp.OK():
		return nil, fmt.Errorf("look up ownership %s %s: %s", owner, isbn, resp.Message)
	}

	return chaincode.Store(ctx, stub, id, Record{
		ID:       id,
		Owner:    owner,
		Borrower: borrower,
		ISBN:     isbn,
		LendAt:   args[4],
	})
}

// markTradingReturned args: id, returnedAt.
func markTradingReturned(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id := args[0]
	rec, _, err := chaincode.Load[Record](ctx, stub, kind, id)
	if err != nil {
		return nil, err
	}
	if rec.Returned() {
		return nil, &engine.ConflictError{Kind: kind, Key: id, Reason: "is already returned"}
	}
	rec.ReturnedAt = args[1]
	return chaincode.Store(ctx, stub, id, rec)
}

// cancelTrading removes a trading whose book has not come back yet.
func cancelTrading(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id := args[0]
	rec, _, err := chaincode.Load[Record](ctx, stub, kind, id)
	if err != nil {
		return nil, err
	}
	if rec.Returned() {
		return nil, &engine.ConflictError{Kind: kind, Key: id, Reason: "is already returned"}
	}
	return nil, chaincode.Remove(ctx, stub, id)
}
