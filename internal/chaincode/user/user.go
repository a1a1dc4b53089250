// Package user implements the user registry contract. Users are keyed by
// locator (localId@host).
package user

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bookledger/internal/chaincode"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/queryir"
)

// Name is the contract name.
const Name = "user"

const kind = "user"

// Record is a stored user.
type Record struct {
	ID      string `json:"id"`
	Host    string `json:"host"`
	Locator string `json:"locator"`
	Name    string `json:"name"`
}

// Locator joins a local id and host.
func Locator(localID, host string) string {
	return localID + "@" + host
}

// Handlers returns the function table.
func Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		"getUser":      getUser,
		"getUsersList": getUsersList,
		"createUser":   createUser,
		"updateUser":   updateUser,
		"deleteUser":   deleteUser,
	}
}

func getUser(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	_, raw, err := chaincode.Load[Record](ctx, stub, kind, args[0])
	return raw, err
}

// getUsersList args: host, localId, displayName, limit, offset.
func getUsersList(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	doc := queryir.Build([]queryir.Filter{
		queryir.Match("host", args[0]),
		queryir.Match("id", args[1]),
		queryir.Match("name", norm.NFC.String(args[2])),
	}, args[3], args[4])

	it, err := stub.GetQueryResult(ctx, doc)
	if err != nil {
		return nil, engine.NewStoreError("query", "", err)
	}
	return engine.DrainJSON(ctx, it, nil)
}

func createUser(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id, host := args[0], args[1]
	locator := Locator(id, host)

	exists, err := chaincode.Exists(ctx, stub, locator)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.AlreadyExistsError{Kind: kind, Key: locator}
	}

	return chaincode.Store(ctx, stub, locator, Record{
		ID:      id,
		Host:    host,
		Locator: locator,
		Name:    norm.NFC.String(args[2]),
	})
}

// updateUser changes the display name only.
func updateUser(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	locator := args[0]
	rec, _, err := chaincode.Load[Record](ctx, stub, kind, locator)
	if err != nil {
		return nil, err
	}
	rec.Name = norm.NFC.String(args[1])
	return chaincode.Store(ctx, stub, locator, rec)
}

func deleteUser(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	locator := args[0]
	exists, err := chaincode.Exists(ctx, stub, locator)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &engine.NotFoundError{Kind: kind, Key: locator}
	}
	return nil, chaincode.Remove(ctx, stub, locator)
}
