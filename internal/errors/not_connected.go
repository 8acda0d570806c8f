package errors

import (
	stdErrors "errors"
	"fmt"
)

// NotConnectedError represents an operation attempted on a closed store.
// Reopening is the caller's responsibility; nothing reopens implicitly.
type NotConnectedError struct {
	Operation string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("store is not connected (operation: %s)", e.Operation)
}

// NewNotConnectedError creates a NotConnectedError for the named operation.
func NewNotConnectedError(operation string) *NotConnectedError {
	return &NotConnectedError{Operation: operation}
}

// IsNotConnectedError reports whether err is a NotConnectedError (even when wrapped).
func IsNotConnectedError(err error) bool {
	var ncErr *NotConnectedError
	return stdErrors.As(err, &ncErr)
}
