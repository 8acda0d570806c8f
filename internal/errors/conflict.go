package errors

import (
	stdErrors "errors"
	"fmt"
)

// ConflictError represents an insert of an already-existing key under the
// reject duplicate policy.
type ConflictError struct {
	Table string
	Key   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate key %s in table %s", e.Key, e.Table)
}

// NewConflictError creates a ConflictError for the given table and key.
func NewConflictError(table, key string) *ConflictError {
	return &ConflictError{Table: table, Key: key}
}

// IsConflictError reports whether err is a ConflictError (even when wrapped).
func IsConflictError(err error) bool {
	var conflictErr *ConflictError
	return stdErrors.As(err, &conflictErr)
}
