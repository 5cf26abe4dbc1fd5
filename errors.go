package relayrefund

import (
	"errors"
	"fmt"
)

// InvalidReason says why a transaction was rejected before dispatch.
type InvalidReason uint8

const (
	// ReasonStale: the transaction would not improve bridge state.
	ReasonStale InvalidReason = iota + 1
	// ReasonCall: the call is malformed.
	ReasonCall
	// ReasonBadProof: a proof could not be checked.
	ReasonBadProof
)

func (r InvalidReason) String() string {
	switch r {
	case ReasonStale:
		return "stale"
	case ReasonCall:
		return "call"
	case ReasonBadProof:
		return "bad proof"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// InvalidTransactionError rejects a transaction before it enters a
// block. The pipeline never dispatches such a transaction.
type InvalidTransactionError struct {
	Reason InvalidReason
	Detail string
}

func (e *InvalidTransactionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid transaction: %s", e.Reason)
	}
	return fmt.Sprintf("invalid transaction: %s: %s", e.Reason, e.Detail)
}

// NewStaleError creates an InvalidTransactionError with ReasonStale.
func NewStaleError(format string, args ...any) *InvalidTransactionError {
	return &InvalidTransactionError{Reason: ReasonStale, Detail: fmt.Sprintf(format, args...)}
}

// NewInvalidError creates an InvalidTransactionError.
func NewInvalidError(reason InvalidReason, detail string) *InvalidTransactionError {
	return &InvalidTransactionError{Reason: reason, Detail: detail}
}

// IsInvalid checks whether an error is an InvalidTransactionError and returns it.
func IsInvalid(err error) (*InvalidTransactionError, bool) {
	var e *InvalidTransactionError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsStale reports whether err rejects a transaction as stale.
func IsStale(err error) bool {
	e, ok := IsInvalid(err)
	return ok && e.Reason == ReasonStale
}
