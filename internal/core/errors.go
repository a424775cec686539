package core

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap exactly one of these so callers can
// branch with errors.Is regardless of the layer that produced them.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("transaction not found")
	ErrStoreFailure    = errors.New("store failure")
)

// Kind names returned by KindOf.
const (
	KindInvalidArgument = "InvalidArgument"
	KindNotFound        = "NotFound"
	KindStoreFailure    = "StoreFailure"
	KindUnknown         = "Unknown"
)

// Operation names used in user-facing failure messages.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// NotFoundMessage is shown for ErrNotFound regardless of the operation.
const NotFoundMessage = "Transaction not found"

// ArgumentError carries the human-readable detail of an invalid input.
type ArgumentError struct {
	Detail string
}

func (e *ArgumentError) Error() string {
	return ErrInvalidArgument.Error() + ": " + e.Detail
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// InvalidArgument builds an ErrInvalidArgument with a formatted detail.
func InvalidArgument(format string, args ...any) error {
	return &ArgumentError{Detail: fmt.Sprintf(format, args...)}
}

// StoreFailure wraps an underlying persistence error.
func StoreFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

// KindOf reports which error kind err belongs to.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStoreFailure):
		return KindStoreFailure
	default:
		return KindUnknown
	}
}

// FailureMessage is the generic message for an operation that failed in
// the store, e.g. "Failed to create transaction".
func FailureMessage(op string) string {
	if op == OpList {
		return "Failed to fetch transactions"
	}
	return "Failed to " + op + " transaction"
}

// UserMessage renders err for display. Invalid input keeps its detail,
// everything else collapses to a fixed message so internals never leak.
func UserMessage(op string, err error) string {
	var argErr *ArgumentError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &argErr):
		return argErr.Detail
	case errors.Is(err, ErrInvalidArgument):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return NotFoundMessage
	default:
		return FailureMessage(op)
	}
}
