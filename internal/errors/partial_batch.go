package errors

import (
	stdErrors "errors"
	"fmt"
)

// PartialBatchError represents a batch insert where one or more chunk
// transactions failed. Chunks committed before the failure stay committed;
// Uncommitted lists the keys of the failed chunk and everything after it so
// callers can retry the remainder.
type PartialBatchError struct {
	Table       string
	Committed   []string
	Uncommitted []string
	Err         error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("batch insert into %s failed after %d records (%d not committed): %v",
		e.Table, len(e.Committed), len(e.Uncommitted), e.Err)
}

func (e *PartialBatchError) Unwrap() error {
	return e.Err
}

// NewPartialBatchError creates a PartialBatchError with the committed and
// uncommitted key lists.
func NewPartialBatchError(table string, committed, uncommitted []string, err error) *PartialBatchError {
	return &PartialBatchError{
		Table:       table,
		Committed:   committed,
		Uncommitted: uncommitted,
		Err:         err,
	}
}

// IsPartialBatchError reports whether err is a PartialBatchError (even when wrapped).
func IsPartialBatchError(err error) bool {
	var pbErr *PartialBatchError
	return stdErrors.As(err, &pbErr)
}

// AsPartialBatchError returns the PartialBatchError inside err, or nil.
func AsPartialBatchError(err error) *PartialBatchError {
	var pbErr *PartialBatchError
	if stdErrors.As(err, &pbErr) {
		return pbErr
	}
	return nil
}
