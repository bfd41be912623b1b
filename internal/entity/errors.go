package entity

import (
	"errors"
	"fmt"
)

// InvalidStateError reports an operation that required a specific
// pending/executed state and was invoked in the wrong one: executing an
// already executed transaction, querying chain relations on a pending
// one, or recomposing the result message before execution.
//
// This is always a programming/usage error, never a business outcome.
// Business rejections are returned as (code, ok=false) pairs by the
// transactor plugins instead.
type InvalidStateError struct {
	// Op names the operation that was refused (e.g. "execute").
	Op string

	// TransactionID identifies the transaction, 0 if unsaved.
	TransactionID int64

	// Pending is the state the transaction was actually in.
	Pending bool
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	state := "executed"
	if e.Pending {
		state = "pending"
	}
	if e.TransactionID != 0 {
		return fmt.Sprintf("invalid transaction state: cannot %s a %s transaction (id=%d)", e.Op, state, e.TransactionID)
	}
	return fmt.Sprintf("invalid transaction state: cannot %s a %s transaction", e.Op, state)
}

// IsInvalidState returns true if the error is an InvalidStateError.
// Uses errors.As to handle wrapped errors.
func IsInvalidState(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}

// TargetMismatchError reports an attempt to bind a target record whose
// entity type does not match the transaction type's configured target
// entity type. Detected at assignment time, not at execution time.
type TargetMismatchError struct {
	Expected string
	Got      string
}

// Error implements the error interface.
func (e *TargetMismatchError) Error() string {
	return fmt.Sprintf("target entity type mismatch: want %q, got %q", e.Expected, e.Got)
}

// IsTargetMismatch returns true if the error is a TargetMismatchError.
func IsTargetMismatch(err error) bool {
	var te *TargetMismatchError
	return errors.As(err, &te)
}

// ErrNoHandler is returned by Transaction methods that delegate to the
// transactor handler when no handler has been attached.
var ErrNoHandler = errors.New("entity: no transactor handler attached")

// ErrOperationMismatch is returned when attaching an operation template
// that belongs to a different transaction type.
var ErrOperationMismatch = errors.New("entity: operation belongs to a different transaction type")
