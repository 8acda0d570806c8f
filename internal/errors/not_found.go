package errors

import (
	stdErrors "errors"
	"fmt"
)

// NotFoundError represents a strict lookup for a key that does not exist.
// Permissive lookups return an empty result instead of this error.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record with key %s in table %s", e.Key, e.Table)
}

// NewNotFoundError creates a NotFoundError for the given table and key.
func NewNotFoundError(table, key string) *NotFoundError {
	return &NotFoundError{Table: table, Key: key}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var nfErr *NotFoundError
	return stdErrors.As(err, &nfErr)
}
