package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/bookledger/internal/compositekey"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/validate"
)

// ErrMissingFunction is returned when a raw argument list has no function
// name.
var ErrMissingFunction = errors.New("missing function name")

// UnknownMethodError reports a call to a function the contract does not
// register.
type UnknownMethodError struct {
	Contract string
	Function string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("Received unknown function %s invocation.", e.Function)
}

// UnknownContractError reports a call to a contract the engine does not
// host.
type UnknownContractError struct {
	Contract string
}

func (e *UnknownContractError) Error() string {
	return fmt.Sprintf("Received invocation for unknown contract %s.", e.Contract)
}

// NotFoundError reports that a required record is absent.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// AlreadyExistsError reports that a create would overwrite a record.
type AlreadyExistsError struct {
	Kind string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.Key)
}

// ConflictError reports that a record is in a state that forbids the
// requested change.
type ConflictError struct {
	Kind   string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s %s", e.Kind, e.Key, e.Reason)
}

// StoreError wraps a failure of the ledger.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError unless it already carries a more
// specific taxonomy error (for example a malformed composite key).
func NewStoreError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var mk *compositekey.MalformedKeyError
	if errors.As(err, &mk) {
		return err
	}
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsNotFound returns true if err is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAlreadyExists returns true if err is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}

// IsStoreError returns true if err is a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// StatusOf maps an error to its envelope status code.
func StatusOf(err error) int {
	if err == nil {
		return ir.StatusOK
	}

	var (
		verr *validate.ValidationError
		mk   *compositekey.MalformedKeyError
		um   *UnknownMethodError
		uc   *UnknownContractError
		nf   *NotFoundError
		ae   *AlreadyExistsError
		ce   *ConflictError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &mk), errors.Is(err, ErrMissingFunction):
		return ir.StatusBadRequest
	case errors.As(err, &um), errors.As(err, &uc), errors.As(err, &nf):
		return ir.StatusNotFound
	case errors.As(err, &ae), errors.As(err, &ce):
		return ir.StatusConflict
	default:
		return ir.StatusInternal
	}
}

// ErrorResponse converts err into an error envelope.
func ErrorResponse(err error) ir.Response {
	return ir.Failure(StatusOf(err), err.Error())
}
