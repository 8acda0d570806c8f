// Package models defines the record types persisted by the datastore.
package models

import "time"

// TimestampLayout is the storage format for insert timestamps. Fixed-width
// fractional seconds and a normalized UTC zone keep the TEXT column
// lexicographically ordered, so range filters and ORDER BY compare correctly.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp renders t in the storage timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Record is the closed set of persistable inspection records.
// Implementations are immutable values; the storage layer only stores,
// fetches and removes whole records.
type Record interface {
	// Key returns the unique identifying key of the record within its table.
	Key() string

	// TableName returns the table the record is persisted in.
	TableName() string

	// Columns returns the column names in insertion order.
	Columns() []string

	// Values returns the column values in the same order as Columns.
	Values() []any
}
