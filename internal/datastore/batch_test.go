package datastore

import (
	"testing"

	"github.com/aoikanri/aoidata/internal/errors"
	"github.com/aoikanri/aoidata/internal/models"
	"github.com/aoikanri/aoidata/internal/platform"
)

// brokenRecord produces a value arity mismatch so the chunk transaction
// fails with a non-constraint execution error.
type brokenRecord struct {
	models.DefectRecord
}

func (b brokenRecord) Values() []any {
	return []any{b.ID}
}

func TestInsertBatch_Empty(t *testing.T) {
	s := openTestStore(t, Options{})

	result, err := s.InsertBatch(nil)
	if err != nil {
		t.Fatalf("empty batch returned error: %v", err)
	}
	if result.Total() != 0 {
		t.Fatalf("empty batch result total = %d, want 0", result.Total())
	}
}

func TestInsertBatch_CountsSumToN(t *testing.T) {
	s := openTestStore(t, Options{})

	for _, n := range []int{0, 1, 7, 123} {
		records := make([]models.Record, n)
		for i := range records {
			records[i] = sampleDefect("LOT-SUM", i, n)
		}

		result, err := s.InsertBatch(records)
		if err != nil {
			t.Fatalf("batch of %d returned error: %v", n, err)
		}
		if result.Total() != n {
			t.Fatalf("batch of %d: inserted+skipped+failed = %d, want %d",
				n, result.Total(), n)
		}
	}
}

func TestInsertBatch_FreshKeysAllInserted(t *testing.T) {
	s := openTestStore(t, Options{})

	records := []models.Record{
		sampleDefect("LOT001", 1, 1),
		sampleDefect("LOT001", 1, 2),
		sampleDefect("LOT001", 1, 3),
	}

	result, err := s.InsertBatch(records)
	if err != nil {
		t.Fatalf("batch insert failed: %v", err)
	}
	if len(result.Inserted) != 3 || len(result.Skipped) != 0 || len(result.Failed) != 0 {
		t.Fatalf("result = %d inserted, %d skipped, %d failed; want 3/0/0",
			len(result.Inserted), len(result.Skipped), len(result.Failed))
	}

	// Re-running the same batch under reject skips every record.
	result, err = s.InsertBatch(records)
	if err != nil {
		t.Fatalf("second batch insert failed: %v", err)
	}
	if len(result.Inserted) != 0 || len(result.Skipped) != 3 || len(result.Failed) != 0 {
		t.Fatalf("rerun result = %d inserted, %d skipped, %d failed; want 0/3/0",
			len(result.Inserted), len(result.Skipped), len(result.Failed))
	}
}

func TestInsert_DuplicateKeySingleAndBatchAgree(t *testing.T) {
	s := openTestStore(t, Options{})
	d := sampleDefect("LOT002", 1, 1)

	if err := s.Insert(d); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// Single path reports the duplicate as a typed conflict.
	err := s.Insert(d)
	if !errors.IsConflictError(err) {
		t.Fatalf("expected ConflictError on duplicate insert, got %v", err)
	}

	// Batch path reports the same duplicate in the skipped bucket.
	result, err := s.InsertBatch([]models.Record{d})
	if err != nil {
		t.Fatalf("batch insert failed: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != d.ID {
		t.Fatalf("skipped bucket = %v, want [%s]", result.Skipped, d.ID)
	}

	// Exactly one row exists for the key.
	all, err := s.ListDefects()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("row count = %d, want 1", len(all))
	}
}

func TestInsertBatch_UpsertPolicyReplaces(t *testing.T) {
	s := openTestStore(t, Options{DuplicatePolicy: DuplicateUpsert})

	original := sampleDefect("LOT003", 1, 1)
	if err := s.Insert(original); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	updated := original
	updated.DefectName = "bridge"
	updated.X = 300

	result, err := s.InsertBatch([]models.Record{updated})
	if err != nil {
		t.Fatalf("upsert batch failed: %v", err)
	}
	if len(result.Inserted) != 1 {
		t.Fatalf("upsert result = %v, want one inserted key", result)
	}

	stored, err := s.GetDefect(original.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.DefectName != "bridge" || stored.X != 300 {
		t.Fatalf("stored record not replaced: %+v", stored)
	}
}

func TestInsertBatch_ChunkFailureReportsUncommitted(t *testing.T) {
	s := openTestStore(t, Options{BatchSize: 1})

	records := []models.Record{
		sampleDefect("LOT004", 1, 1),
		sampleDefect("LOT004", 1, 2),
		brokenRecord{sampleDefect("LOT004", 1, 3)},
		sampleDefect("LOT004", 1, 4),
		sampleDefect("LOT004", 1, 5),
	}

	result, err := s.InsertBatch(records)
	if !errors.IsPartialBatchError(err) {
		t.Fatalf("expected PartialBatchError, got %v", err)
	}

	pb := errors.AsPartialBatchError(err)
	if len(pb.Committed) != 2 {
		t.Fatalf("committed = %v, want first two keys", pb.Committed)
	}
	if len(pb.Uncommitted) != 3 {
		t.Fatalf("uncommitted = %v, want failed chunk plus remainder", pb.Uncommitted)
	}
	if result.Total() != len(records) {
		t.Fatalf("result total = %d, want %d", result.Total(), len(records))
	}

	// Records before the failed chunk stay persisted.
	all, listErr := s.ListDefects()
	if listErr != nil {
		t.Fatalf("list failed: %v", listErr)
	}
	if len(all) != 2 {
		t.Fatalf("persisted rows = %d, want 2", len(all))
	}
}

func TestInsertBatch_ChunkingMatchesOverride(t *testing.T) {
	// batchSize=2 over 5 records: chunks of 2, 2 and 1.
	s := openTestStore(t, Options{BatchSize: 2})

	records := make([]models.Record, 5)
	for i := range records {
		records[i] = sampleDefect("LOT005", 1, i+1)
	}

	result, err := s.InsertBatch(records)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(result.Inserted) != 5 {
		t.Fatalf("inserted = %d, want 5", len(result.Inserted))
	}
}

func TestInsertBatch_MixedTablesRejected(t *testing.T) {
	s := openTestStore(t, Options{})

	d := sampleDefect("LOT006", 1, 1)
	r := models.NewRepairRecord(models.RepairRecord{ID: d.ID})

	if _, err := s.InsertBatch([]models.Record{d, r}); err == nil {
		t.Fatalf("expected error for mixed-table batch")
	}
}

func TestInsertBatch_EmptyKeyGoesToFailed(t *testing.T) {
	s := openTestStore(t, Options{})

	bad := models.DefectRecord{DefectName: "no key"}
	result, err := s.InsertBatch([]models.Record{bad, sampleDefect("LOT007", 1, 1)})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(result.Failed) != 1 || len(result.Inserted) != 1 {
		t.Fatalf("result = %+v, want one failed and one inserted", result)
	}
	// The failed entry names the input slot so callers can find the record.
	if result.Failed[0] != "<record 0: empty key>" {
		t.Fatalf("failed entry = %q, want the input index placeholder", result.Failed[0])
	}
}

func TestInsertBatch_UnicodeRoundTrip(t *testing.T) {
	s := openTestStore(t, Options{})

	d := sampleDefect("指図-123", 1, 1)
	d.DefectName = "ハンダ不良"
	d.AOIUser = "検査員①"
	d.Reference = "R人형"

	if _, err := s.InsertBatch([]models.Record{d}); err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	stored, err := s.GetDefect(d.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.DefectName != "ハンダ不良" || stored.AOIUser != "検査員①" ||
		stored.LotNumber != "指図-123" || stored.Reference != "R人형" {
		t.Fatalf("multi-byte text corrupted: %+v", stored)
	}
}

func TestInsertBatch_ConstrainedChunkPolicyUsed(t *testing.T) {
	policyCalls := 0
	s := openTestStore(t, Options{
		ChunkPolicy: func(_ platform.Diagnostics) int {
			policyCalls++
			return 2
		},
	})

	records := make([]models.Record, 3)
	for i := range records {
		records[i] = sampleDefect("LOT008", 1, i+1)
	}

	if _, err := s.InsertBatch(records); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if policyCalls == 0 {
		t.Fatalf("injected chunk policy was never consulted")
	}
}
