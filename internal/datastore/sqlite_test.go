package datastore

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aoikanri/aoidata/internal/errors"
	"github.com/aoikanri/aoidata/internal/models"
)

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "aoi_data.db")
}

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s := New(testDBPath(t), opts)
	if err := s.Open(); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.EnsureSchema(); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return s
}

func sampleDefect(lot string, board, number int) models.DefectRecord {
	return models.NewDefectRecord(models.DefectRecord{
		LineName:          "LINE_01",
		ModelCode:         "Y001",
		LotNumber:         lot,
		CurrentBoardIndex: board,
		DefectNumber:      number,
		DefectName:        "scratch",
		X:                 100,
		Y:                 200,
		AOIUser:           "operator_1",
	})
}

func TestStore_OpenCloseStateMachine(t *testing.T) {
	s := New(testDBPath(t), Options{})

	if s.IsConnected() {
		t.Fatalf("new store reports connected before Open")
	}

	if err := s.Open(); err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	if !s.IsConnected() {
		t.Fatalf("store reports disconnected after Open")
	}

	// Open on an already-open store is a no-op.
	if err := s.Open(); err != nil {
		t.Fatalf("second Open returned error: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	if s.IsConnected() {
		t.Fatalf("store reports connected after Close")
	}
}

func TestStore_CloseTwiceIsNoOp(t *testing.T) {
	s := New(testDBPath(t), Options{})
	if err := s.Open(); err != nil {
		t.Fatalf("failed to open: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestStore_RepeatedOpenClose(t *testing.T) {
	path := testDBPath(t)

	for i := 0; i < 20; i++ {
		s := New(path, Options{})
		if err := s.Open(); err != nil {
			t.Fatalf("cycle %d: failed to open: %v", i, err)
		}
		if err := s.EnsureSchema(); err != nil {
			t.Fatalf("cycle %d: failed to ensure schema: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("cycle %d: failed to close: %v", i, err)
		}
	}

	// The store is still usable after all those cycles.
	s := New(path, Options{})
	if err := s.Open(); err != nil {
		t.Fatalf("final open failed: %v", err)
	}
	defer func() { _ = s.Close() }()
	if err := s.Insert(sampleDefect("LOT001", 1, 1)); err != nil {
		t.Fatalf("insert after reopen failed: %v", err)
	}
}

func TestStore_OpenInvalidPath(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "no", "such", "dir", "aoi_data.db"), Options{})

	err := s.Open()
	if err == nil {
		t.Fatalf("expected error opening store under missing directory")
	}
	if !errors.IsConnectionError(err) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if s.IsConnected() {
		t.Fatalf("store reports connected after failed Open")
	}
}

func TestStore_OperationsWhileClosed(t *testing.T) {
	s := New(testDBPath(t), Options{})

	checks := map[string]func() error{
		"ensure schema": func() error { return s.EnsureSchema() },
		"insert":        func() error { return s.Insert(sampleDefect("LOT001", 1, 1)) },
		"get":           func() error { _, err := s.GetDefect("x"); return err },
		"delete":        func() error { _, err := s.DeleteDefect("x"); return err },
		"batch": func() error {
			_, err := s.InsertBatch([]models.Record{sampleDefect("LOT001", 1, 1)})
			return err
		},
	}

	for name, op := range checks {
		if err := op(); !errors.IsNotConnectedError(err) {
			t.Errorf("%s on closed store: expected NotConnectedError, got %v", name, err)
		}
	}
}

func TestWith_ReleasesOnSuccess(t *testing.T) {
	path := testDBPath(t)
	var captured *Store

	err := With(path, Options{}, func(s *Store) error {
		captured = s
		return s.EnsureSchema()
	})
	if err != nil {
		t.Fatalf("With returned error: %v", err)
	}
	if captured.IsConnected() {
		t.Fatalf("store still connected after With returned")
	}
}

func TestWith_ReleasesOnError(t *testing.T) {
	var captured *Store
	opErr := fmt.Errorf("operation failed")

	err := With(testDBPath(t), Options{}, func(s *Store) error {
		captured = s
		return opErr
	})
	if err == nil {
		t.Fatalf("With swallowed the operation error")
	}
	if captured.IsConnected() {
		t.Fatalf("store still connected after failed operation")
	}
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	var captured *Store

	func() {
		defer func() { _ = recover() }()
		_ = With(testDBPath(t), Options{}, func(s *Store) error {
			captured = s
			panic("boom")
		})
	}()

	if captured.IsConnected() {
		t.Fatalf("store still connected after panic in operation")
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := openTestStore(t, Options{})

	for i := 0; i < 3; i++ {
		if err := s.EnsureSchema(); err != nil {
			t.Fatalf("EnsureSchema call %d failed: %v", i+1, err)
		}
	}
}

func TestEnsureSchema_IncompatibleTable(t *testing.T) {
	s := New(testDBPath(t), Options{})
	if err := s.Open(); err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer func() { _ = s.Close() }()

	// Pre-create a defect_info table with the wrong layout.
	if _, err := s.db.Exec("CREATE TABLE defect_info (wrong TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("failed to create incompatible table: %v", err)
	}

	err := s.EnsureSchema()
	if !errors.IsSchemaError(err) {
		t.Fatalf("expected SchemaError for incompatible table, got %v", err)
	}

	// The incompatible table was not dropped or altered.
	var count int
	row := s.db.QueryRow("SELECT count(*) FROM pragma_table_info('defect_info') WHERE name = 'wrong'")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to inspect table: %v", err)
	}
	if count != 1 {
		t.Fatalf("incompatible table was modified")
	}
}
