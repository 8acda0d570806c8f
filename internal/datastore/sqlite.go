// Package datastore manages the local SQLite store for inspection records:
// connection lifecycle, schema creation, chunked batch insertion and
// query/delete operations.
package datastore

import (
	"database/sql"
	stdErrors "errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/aoikanri/aoidata/internal/errors"
	"github.com/aoikanri/aoidata/internal/platform"
)

// DuplicatePolicy selects how an insert of an existing key is handled.
type DuplicatePolicy string

const (
	// DuplicateReject skips the duplicate and reports it as a conflict.
	// This is the default policy.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateUpsert replaces the stored record with the new one.
	DuplicateUpsert DuplicatePolicy = "upsert"
)

// Options configures a Store.
type Options struct {
	// BatchSize overrides the auto-detected chunk size when > 0.
	BatchSize int
	// DuplicatePolicy selects reject or upsert behavior for existing keys.
	DuplicatePolicy DuplicatePolicy
	// StrictLookup makes point lookups fail with NotFoundError on a miss
	// instead of returning an empty result.
	StrictLookup bool
	// ChunkPolicy maps platform diagnostics to a chunk size. Overridable
	// so tests can simulate constrained platforms.
	ChunkPolicy func(platform.Diagnostics) int
}

// Store owns at most one live connection to a SQLite database file.
// It is not safe for concurrent use; concurrent callers must each own
// their own Store against the same path.
type Store struct {
	db   *sql.DB
	path string
	opts Options
}

// New creates a Store for the database file at path. The connection is not
// opened until Open is called.
func New(path string, opts Options) *Store {
	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = DuplicateReject
	}
	if opts.ChunkPolicy == nil {
		opts.ChunkPolicy = platform.ChunkPolicy
	}
	return &Store{
		path: path,
		opts: opts,
	}
}

// Open establishes the connection. Opening an already-open store is a no-op.
// Failures are reported as ConnectionError and never retried.
func (s *Store) Open() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.NewConnectionError(s.path, err)
	}

	// One writer at a time; the store assumes a single logical owner.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return errors.NewConnectionError(s.path, stdErrors.Join(err, closeErr))
	}

	s.db = db
	return nil
}

// Close releases the connection. Closing an already-closed store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

// IsConnected reports whether the store currently holds a live connection.
func (s *Store) IsConnected() bool {
	return s.db != nil
}

// Path returns the database file path the store was created with.
func (s *Store) Path() string {
	return s.path
}

// With opens a store at path, runs fn, and closes the store on every exit
// path, including when fn returns an error or panics.
func With(path string, opts Options, fn func(*Store) error) (err error) {
	s := New(path, opts)
	if err := s.Open(); err != nil {
		return err
	}
	defer func() {
		closeErr := s.Close()
		err = stdErrors.Join(err, closeErr)
	}()

	return fn(s)
}

// EnsureSchema creates the defect and repair tables when missing and
// verifies the column layout of pre-existing tables. It never drops or
// alters existing data; an incompatible layout is a SchemaError.
func (s *Store) EnsureSchema() error {
	if !s.IsConnected() {
		return errors.NewNotConnectedError("ensure schema")
	}

	for _, schema := range AllSchemas {
		if _, err := s.db.Exec(schema); err != nil {
			return errors.NewSchemaError("", err)
		}
	}

	for table, want := range tableColumns {
		if err := s.verifyColumns(table, want); err != nil {
			return err
		}
	}
	return nil
}

// verifyColumns compares the on-disk column set of table against want.
func (s *Store) verifyColumns(table string, want []string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return errors.NewSchemaError(table, err)
	}
	defer func() { _ = rows.Close() }()

	got := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return errors.NewSchemaError(table, err)
		}
		got[name] = true
	}
	if err := rows.Err(); err != nil {
		return errors.NewSchemaError(table, err)
	}

	for _, col := range want {
		if !got[col] {
			return errors.NewSchemaError(table,
				fmt.Errorf("existing table is missing column %s", col))
		}
	}
	return nil
}

// chunkSize resolves the effective batch chunk size: explicit override
// first, otherwise the platform policy.
func (s *Store) chunkSize() int {
	if s.opts.BatchSize > 0 {
		return s.opts.BatchSize
	}
	return s.opts.ChunkPolicy(platform.Detect())
}
