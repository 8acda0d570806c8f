package datastore

import (
	"fmt"
	"strings"

	"github.com/aoikanri/aoidata/internal/errors"
	"github.com/aoikanri/aoidata/internal/models"
)

// BatchResult reports the outcome of a batch insert per identifying key.
// len(Inserted) + len(Skipped) + len(Failed) always equals the input length.
type BatchResult struct {
	// Inserted lists keys that were written.
	Inserted []string
	// Skipped lists keys rejected as duplicates under the reject policy.
	Skipped []string
	// Failed lists keys that were not committed: shape-invalid records,
	// per-record failures, and every record of an aborted chunk.
	Failed []string
}

// Total returns the number of records accounted for.
func (r BatchResult) Total() int {
	return len(r.Inserted) + len(r.Skipped) + len(r.Failed)
}

// Insert persists a single record. Under the reject policy an existing key
// yields a ConflictError; under upsert the stored record is replaced.
func (s *Store) Insert(record models.Record) error {
	if !s.IsConnected() {
		return errors.NewNotConnectedError("insert")
	}
	if record.Key() == "" {
		return fmt.Errorf("record has an empty identifying key")
	}

	res, err := s.db.Exec(insertQuery(record, s.opts.DuplicatePolicy), record.Values()...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", record.TableName(), err)
	}

	if s.opts.DuplicatePolicy == DuplicateReject {
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			return errors.NewConflictError(record.TableName(), record.Key())
		}
	}
	return nil
}

// InsertBatch persists records in chunks, one transaction per chunk, so peak
// memory stays proportional to the chunk size rather than the batch size.
// Committed chunks are not rolled back when a later chunk fails; the
// returned PartialBatchError lists the keys that were not committed.
// All records must target the same table. An empty input is a no-op.
func (s *Store) InsertBatch(records []models.Record) (BatchResult, error) {
	var result BatchResult

	if !s.IsConnected() {
		return result, errors.NewNotConnectedError("batch insert")
	}
	if len(records) == 0 {
		return result, nil
	}

	table := records[0].TableName()
	for _, r := range records {
		if r.TableName() != table {
			return result, fmt.Errorf("mixed tables in batch: %s and %s", table, r.TableName())
		}
	}

	chunkSize := s.chunkSize()
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		inserted, skipped, failed, err := s.insertChunk(chunk, start)
		if err != nil {
			// The failed chunk and everything after it stay uncommitted.
			result.Failed = append(result.Failed, keysOf(chunk)...)
			result.Failed = append(result.Failed, keysOf(records[end:])...)
			committed := append(append([]string{}, result.Inserted...), result.Skipped...)
			return result, errors.NewPartialBatchError(table, committed, result.Failed, err)
		}
		result.Inserted = append(result.Inserted, inserted...)
		result.Skipped = append(result.Skipped, skipped...)
		result.Failed = append(result.Failed, failed...)
	}

	return result, nil
}

// insertChunk commits one chunk as a single transaction. Per-record
// duplicates and shape failures are recovered locally; any other execution
// error aborts the whole chunk.
func (s *Store) insertChunk(chunk []models.Record, offset int) (inserted, skipped, failed []string, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once the transaction has been committed.
		_ = tx.Rollback()
	}()

	for i, record := range chunk {
		if record.Key() == "" {
			// Empty keys have nothing to report by, so name the input slot.
			failed = append(failed, fmt.Sprintf("<record %d: empty key>", offset+i))
			continue
		}

		res, execErr := tx.Exec(insertQuery(record, s.opts.DuplicatePolicy), record.Values()...)
		if execErr != nil {
			if isPerRecordError(execErr) {
				failed = append(failed, record.Key())
				continue
			}
			return nil, nil, nil, fmt.Errorf("failed to insert record %s: %w", record.Key(), execErr)
		}

		if s.opts.DuplicatePolicy == DuplicateReject {
			affected, raErr := res.RowsAffected()
			if raErr != nil {
				return nil, nil, nil, fmt.Errorf("failed to read rows affected: %w", raErr)
			}
			if affected == 0 {
				skipped = append(skipped, record.Key())
				continue
			}
		}
		inserted = append(inserted, record.Key())
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, skipped, failed, nil
}

// insertQuery builds the INSERT statement for a record under the given
// duplicate policy. Reject relies on INSERT OR IGNORE plus the rows-affected
// count so duplicates are distinguishable from hard failures.
func insertQuery(record models.Record, policy DuplicatePolicy) string {
	columns := record.Columns()
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}

	if policy == DuplicateUpsert {
		assignments := make([]string, 0, len(columns)-1)
		for _, col := range columns {
			if col == "id" {
				continue
			}
			assignments = append(assignments, fmt.Sprintf("%s = excluded.%s", col, col))
		}
		return fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
			record.TableName(),
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
			strings.Join(assignments, ", "),
		)
	}

	return fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		record.TableName(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// isPerRecordError reports whether an execution error is scoped to one
// record (a constraint violation) rather than the whole transaction
// (store unavailable, disk full).
func isPerRecordError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}

func keysOf(records []models.Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}
