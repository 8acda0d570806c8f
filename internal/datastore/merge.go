package datastore

import (
	"fmt"
	"log/slog"

	"github.com/aoikanri/aoidata/internal/models"
)

// MergeOptions controls delete synchronization during a merge.
type MergeOptions struct {
	// DeleteDefectIDs lists defect keys to remove from the target after the
	// source rows have been applied.
	DeleteDefectIDs []string
	// DeleteRepairIDs lists repair keys to remove from the target.
	DeleteRepairIDs []string
}

// Merge applies every record of the source store to the target store as an
// upsert, then removes the keys listed in opts from the target. Running the
// same merge twice leaves the target unchanged.
func Merge(sourcePath, targetPath string, opts MergeOptions) error {
	var defects []models.DefectRecord
	var repairs []models.RepairRecord

	err := With(sourcePath, Options{}, func(source *Store) error {
		if err := source.EnsureSchema(); err != nil {
			return err
		}
		var err error
		if defects, err = source.ListDefects(); err != nil {
			return err
		}
		repairs, err = source.ListRepairs()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to read source store: %w", err)
	}

	return With(targetPath, Options{DuplicatePolicy: DuplicateUpsert}, func(target *Store) error {
		if err := target.EnsureSchema(); err != nil {
			return err
		}

		if _, err := target.InsertBatch(defectRecords(defects)); err != nil {
			return fmt.Errorf("failed to merge defects: %w", err)
		}
		if _, err := target.InsertBatch(repairRecords(repairs)); err != nil {
			return fmt.Errorf("failed to merge repairs: %w", err)
		}

		for _, id := range opts.DeleteDefectIDs {
			if _, err := target.DeleteDefect(id); err != nil {
				return err
			}
		}
		for _, id := range opts.DeleteRepairIDs {
			if _, err := target.DeleteRepair(id); err != nil {
				return err
			}
		}

		slog.Info("Merge complete",
			"defects", len(defects),
			"repairs", len(repairs),
			"deleted_defects", len(opts.DeleteDefectIDs),
			"deleted_repairs", len(opts.DeleteRepairIDs))
		return nil
	})
}

func defectRecords(defects []models.DefectRecord) []models.Record {
	records := make([]models.Record, len(defects))
	for i, d := range defects {
		records[i] = d
	}
	return records
}

func repairRecords(repairs []models.RepairRecord) []models.Record {
	records := make([]models.Record, len(repairs))
	for i, r := range repairs {
		records[i] = r
	}
	return records
}
