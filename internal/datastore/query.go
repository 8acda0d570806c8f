package datastore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aoikanri/aoidata/internal/errors"
	"github.com/aoikanri/aoidata/internal/models"
)

const defectColumns = `id, line_name, model_code, lot_number, current_board_index,
	defect_number, serial, reference, defect_name, x, y, aoi_user,
	insert_datetime, model_label, board_label, kintone_record_id`

const repairColumns = `id, is_repaird, parts_type, operator, insert_datetime, kintone_record_id`

// GetDefect looks up one defect by key. A miss returns (nil, nil) unless the
// store was configured with StrictLookup, in which case it is a NotFoundError.
func (s *Store) GetDefect(id string) (*models.DefectRecord, error) {
	if !s.IsConnected() {
		return nil, errors.NewNotConnectedError("get defect")
	}

	row := s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM defect_info WHERE id = ?", defectColumns), id)
	d, err := scanDefect(row.Scan)
	if err == sql.ErrNoRows {
		if s.opts.StrictLookup {
			return nil, errors.NewNotFoundError(models.DefectTable, id)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query defect %s: %w", id, err)
	}
	return d, nil
}

// ListDefects returns all defect records ordered by insertion time.
func (s *Store) ListDefects() ([]models.DefectRecord, error) {
	return s.queryDefects(
		fmt.Sprintf("SELECT %s FROM defect_info ORDER BY insert_datetime", defectColumns))
}

// ListDefectsByLot returns the defects observed for one lot.
func (s *Store) ListDefectsByLot(lotNumber string) ([]models.DefectRecord, error) {
	return s.queryDefects(
		fmt.Sprintf("SELECT %s FROM defect_info WHERE lot_number = ? ORDER BY insert_datetime", defectColumns),
		lotNumber)
}

// ListDefectsByName returns the defects with the given classification name.
func (s *Store) ListDefectsByName(defectName string) ([]models.DefectRecord, error) {
	return s.queryDefects(
		fmt.Sprintf("SELECT %s FROM defect_info WHERE defect_name = ? ORDER BY insert_datetime", defectColumns),
		defectName)
}

// ListDefectsByTimeRange returns the defects inserted in [from, to).
func (s *Store) ListDefectsByTimeRange(from, to time.Time) ([]models.DefectRecord, error) {
	return s.queryDefects(
		fmt.Sprintf("SELECT %s FROM defect_info WHERE insert_datetime >= ? AND insert_datetime < ? ORDER BY insert_datetime", defectColumns),
		models.FormatTimestamp(from), models.FormatTimestamp(to))
}

// ListUnsyncedDefects returns the defects that have no kintone record ID yet.
func (s *Store) ListUnsyncedDefects() ([]models.DefectRecord, error) {
	return s.queryDefects(
		fmt.Sprintf("SELECT %s FROM defect_info WHERE kintone_record_id = '' ORDER BY insert_datetime", defectColumns))
}

// ListLotNumbers returns the distinct lot numbers present in the store.
func (s *Store) ListLotNumbers() ([]string, error) {
	if !s.IsConnected() {
		return nil, errors.NewNotConnectedError("list lots")
	}

	rows, err := s.db.Query("SELECT DISTINCT lot_number FROM defect_info ORDER BY lot_number")
	if err != nil {
		return nil, fmt.Errorf("failed to query lot numbers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lots []string
	for rows.Next() {
		var lot string
		if err := rows.Scan(&lot); err != nil {
			return nil, fmt.Errorf("failed to scan lot number: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// CountRepairsByLot returns how many defects of the lot have a repair row.
// Unaffected by the StrictLookup option.
func (s *Store) CountRepairsByLot(lotNumber string) (int, error) {
	if !s.IsConnected() {
		return 0, errors.NewNotConnectedError("count repairs by lot")
	}

	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM repaird_info r
		 JOIN defect_info d ON r.id = d.id WHERE d.lot_number = ?`,
		lotNumber).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count repairs for lot %s: %w", lotNumber, err)
	}
	return count, nil
}

// GetRepair looks up one repair by its defect key. Miss semantics follow the
// StrictLookup option, same as GetDefect.
func (s *Store) GetRepair(id string) (*models.RepairRecord, error) {
	if !s.IsConnected() {
		return nil, errors.NewNotConnectedError("get repair")
	}

	row := s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM repaird_info WHERE id = ?", repairColumns), id)
	r, err := scanRepair(row.Scan)
	if err == sql.ErrNoRows {
		if s.opts.StrictLookup {
			return nil, errors.NewNotFoundError(models.RepairTable, id)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query repair %s: %w", id, err)
	}
	return r, nil
}

// ListRepairs returns all repair records ordered by insertion time.
func (s *Store) ListRepairs() ([]models.RepairRecord, error) {
	if !s.IsConnected() {
		return nil, errors.NewNotConnectedError("list repairs")
	}

	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s FROM repaird_info ORDER BY insert_datetime", repairColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query repairs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repairs []models.RepairRecord
	for rows.Next() {
		r, err := scanRepair(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repair: %w", err)
		}
		repairs = append(repairs, *r)
	}
	return repairs, rows.Err()
}

// ListUnsyncedRepairs returns the repairs that have no kintone record ID yet.
func (s *Store) ListUnsyncedRepairs() ([]models.RepairRecord, error) {
	if !s.IsConnected() {
		return nil, errors.NewNotConnectedError("list unsynced repairs")
	}

	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s FROM repaird_info WHERE kintone_record_id = '' ORDER BY insert_datetime", repairColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced repairs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repairs []models.RepairRecord
	for rows.Next() {
		r, err := scanRepair(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repair: %w", err)
		}
		repairs = append(repairs, *r)
	}
	return repairs, rows.Err()
}

// DeleteDefect removes one defect by key. Deleting a missing key succeeds
// and reports zero rows affected.
func (s *Store) DeleteDefect(id string) (int64, error) {
	return s.deleteByKey(models.DefectTable, "delete defect", id)
}

// DeleteRepair removes one repair by key. Deleting a missing key succeeds
// and reports zero rows affected.
func (s *Store) DeleteRepair(id string) (int64, error) {
	return s.deleteByKey(models.RepairTable, "delete repair", id)
}

// DeleteDefectsByLot removes every defect of one lot in a single transaction
// and returns the number of rows removed.
func (s *Store) DeleteDefectsByLot(lotNumber string) (int64, error) {
	if !s.IsConnected() {
		return 0, errors.NewNotConnectedError("delete defects by lot")
	}

	res, err := s.db.Exec("DELETE FROM defect_info WHERE lot_number = ?", lotNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to delete defects for lot %s: %w", lotNumber, err)
	}
	return res.RowsAffected()
}

// SetKintoneRecordID stores the remote record ID returned by the sync
// service for one record.
func (s *Store) SetKintoneRecordID(table, id, recordID string) error {
	if !s.IsConnected() {
		return errors.NewNotConnectedError("set kintone record id")
	}
	if !ValidTableNames[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}

	_, err := s.db.Exec(
		fmt.Sprintf("UPDATE %s SET kintone_record_id = ? WHERE id = ?", table),
		recordID, id)
	if err != nil {
		return fmt.Errorf("failed to update kintone record id for %s: %w", id, err)
	}
	return nil
}

func (s *Store) deleteByKey(table, operation, id string) (int64, error) {
	if !s.IsConnected() {
		return 0, errors.NewNotConnectedError(operation)
	}

	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s from %s: %w", id, table, err)
	}
	return res.RowsAffected()
}

func (s *Store) queryDefects(query string, args ...any) ([]models.DefectRecord, error) {
	if !s.IsConnected() {
		return nil, errors.NewNotConnectedError("query defects")
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query defects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defects []models.DefectRecord
	for rows.Next() {
		d, err := scanDefect(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan defect: %w", err)
		}
		defects = append(defects, *d)
	}
	return defects, rows.Err()
}

func scanDefect(scan func(...any) error) (*models.DefectRecord, error) {
	var d models.DefectRecord
	var insertDatetime string
	if err := scan(
		&d.ID, &d.LineName, &d.ModelCode, &d.LotNumber, &d.CurrentBoardIndex,
		&d.DefectNumber, &d.Serial, &d.Reference, &d.DefectName, &d.X, &d.Y,
		&d.AOIUser, &insertDatetime, &d.ModelLabel, &d.BoardLabel,
		&d.KintoneRecordID,
	); err != nil {
		return nil, err
	}
	d.InsertDatetime = parseTimestamp(insertDatetime)
	return &d, nil
}

func scanRepair(scan func(...any) error) (*models.RepairRecord, error) {
	var r models.RepairRecord
	var insertDatetime string
	if err := scan(
		&r.ID, &r.IsRepaird, &r.PartsType, &r.Operator, &insertDatetime,
		&r.KintoneRecordID,
	); err != nil {
		return nil, err
	}
	r.InsertDatetime = parseTimestamp(insertDatetime)
	return &r, nil
}

// parseTimestamp is tolerant of rows written by older tools that used a
// plain date format; unparseable values come back as the zero time.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
