// Package room implements the room registry contract. A room is the place
// where an inviter and a guest meet to hand over or return a book. Rooms
// are keyed by id.
package room

import (
	"context"
	"fmt"

	"github.com/roach88/bookledger/internal/chaincode"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
)

// Name is the contract name.
const Name = "room"

// UserContract is consulted to confirm a guest is registered.
const UserContract = "user"

const kind = "room"

// Record is a stored room.
type Record struct {
	ID       string `json:"id"`
	Purpose  string `json:"purpose"`
	Inviter  string `json:"inviter"`
	Host     string `json:"host"`
	Guest    string `json:"guest,omitempty"`
	ClosedAt string `json:"closedAt,omitempty"`
}

// Closed reports whether the room has been closed.
func (r Record) Closed() bool { return r.ClosedAt != "" }

// Handlers returns the function table.
func Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		"getRoom":         getRoom,
		"createRoom":      createRoom,
		"guestJoinedRoom": guestJoinedRoom,
		"closeRoom":       closeRoom,
	}
}

func getRoom(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	_, raw, err := chaincode.Load[Record](ctx, stub, kind, args[0])
	return raw, err
}

// createRoom args: id, purpose, inviter, host.
func createRoom(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id := args[0]
	exists, err := chaincode.Exists(ctx, stub, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.AlreadyExistsError{Kind: kind, Key: id}
	}
	return chaincode.Store(ctx, stub, id, Record{
		ID:      id,
		Purpose: args[1],
		Inviter: args[2],
		Host:    args[3],
	})
}

// guestJoinedRoom records the guest of an open room. The guest must be a
// registered user.
func guestJoinedRoom(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id, guest := args[0], args[1]
	rec, _, err := chaincode.Load[Record](ctx, stub, kind, id)
	if err != nil {
		return nil, err
	}
	if rec.Closed() {
		return nil, &engine.ConflictError{Kind: kind, Key: id, Reason: "is closed"}
	}
	if rec.Guest != "" && rec.Guest != guest {
		return nil, &engine.ConflictError{Kind: kind, Key: id, Reason: "already has guest " + rec.Guest}
	}

	resp := stub.InvokeContract(ctx, UserContract, []string{"getUser", guest})
	switch {
	case resp.Status == ir.StatusNotFound:
		return nil, &engine.NotFoundError{Kind: "guest user", Key: guest}
	case !resp.OK():
		return nil, fmt.Errorf("look up guest %s: %s", guest, resp.Message)
	}

	rec.Guest = guest
	return chaincode.Store(ctx, stub, id, rec)
}

// closeRoom args: id, closedAt.
func closeRoom(ctx context.Context, stub engine.StateStore, args []string) ([]byte, error) {
	id := args[0]
	rec, _, err := chaincode.Load[Record](ctx, stub, kind, id)
	if err != nil {
		return nil, err
	}
	if rec.Closed() {
		return nil, &engine.ConflictError{Kind: kind, Key: id, Reason: "is closed"}
	}
	rec.ClosedAt = args[1]
	return chaincode.Store(ctx, stub, id, rec)
}
