// Package errors defines the typed failures surfaced by the storage layer.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ConnectionError represents a failure to open or access the local store.
// Connection failures are never retried automatically.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot open store at %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a ConnectionError for the given store path.
func NewConnectionError(path string, err error) *ConnectionError {
	return &ConnectionError{Path: path, Err: err}
}

// IsConnectionError reports whether err is a ConnectionError (even when wrapped).
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return stdErrors.As(err, &connErr)
}
