package common

import (
	"fmt"
)

// ConflictError is returned when a transaction fails commit validation
// because another transaction modified one of its reads.
// It is transient and safe to retry.
type ConflictError struct {
	Message string
}

func (ce ConflictError) Error() string {
	return fmt.Sprintf("%s", ce.Message)
}

// NewConflictError creates a new instance of ConflictError with the given message.
func NewConflictError(message string) ConflictError {
	return ConflictError{
		Message: message,
	}
}

// CancelledError is returned when an operation is abandoned because its
// context was cancelled. It is a distinguished outcome rather than a
// failure of the database.
type CancelledError struct {
	Message string
}

func (ce CancelledError) Error() string {
	return fmt.Sprintf("%s", ce.Message)
}

// NewCancelledError creates a new instance of CancelledError with the given message.
func NewCancelledError(message string) CancelledError {
	return CancelledError{
		Message: message,
	}
}

// ClosedError is returned when an operation is called on a closed database.
type ClosedError struct {
	Message string
}

func (ce ClosedError) Error() string {
	return fmt.Sprintf("%s", ce.Message)
}

// NewClosedError creates a new instance of ClosedError with the given message.
func NewClosedError(message string) ClosedError {
	return ClosedError{
		Message: message,
	}
}

// CommittedTransactionError is returned when an operation is called on an already committed txn.
type CommittedTransactionError struct {
	Message string
}

func (cte CommittedTransactionError) Error() string {
	return fmt.Sprintf("%s", cte.Message)
}

// NewCommittedTransactionError creates a new instance of CommittedTransactionError with the given message.
func NewCommittedTransactionError(message string) CommittedTransactionError {
	return CommittedTransactionError{
		Message: message,
	}
}

// CancelledTransactionError is returned when an operation is called on a cancelled txn.
type CancelledTransactionError struct {
	Message string
}

func (cte CancelledTransactionError) Error() string {
	return fmt.Sprintf("%s", cte.Message)
}

// NewCancelledTransactionError creates a new instance of CancelledTransactionError with the given message.
func NewCancelledTransactionError(message string) CancelledTransactionError {
	return CancelledTransactionError{
		Message: message,
	}
}
