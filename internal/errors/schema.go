package errors

import (
	stdErrors "errors"
	"fmt"
)

// SchemaError represents a table creation or validation failure.
// Existing data is never silently dropped or altered.
type SchemaError struct {
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema failure for table %s: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError creates a SchemaError for the given table.
func NewSchemaError(table string, err error) *SchemaError {
	return &SchemaError{Table: table, Err: err}
}

// IsSchemaError reports whether err is a SchemaError (even when wrapped).
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return stdErrors.As(err, &schemaErr)
}
