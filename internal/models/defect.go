package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefectTable is the table name for defect records.
const DefectTable = "defect_info"

// DefectRecord holds one defect observation from AOI inspection.
// The ID is derived from lot number, board index and defect number so the
// same physical defect always maps to the same row.
type DefectRecord struct {
	ID                string    `validate:"required" csv:"id"`
	LineName          string    `csv:"line_name"`
	ModelCode         string    `csv:"model_code"`
	LotNumber         string    `validate:"required" csv:"lot_number"`
	CurrentBoardIndex int       `csv:"current_board_index"`
	DefectNumber      int       `csv:"defect_number"`
	Serial            string    `csv:"serial"`
	Reference         string    `csv:"reference"`
	DefectName        string    `validate:"required" csv:"defect_name"`
	X                 float64   `csv:"x"`
	Y                 float64   `csv:"y"`
	AOIUser           string    `csv:"aoi_user"`
	InsertDatetime    time.Time `csv:"insert_datetime"`
	ModelLabel        string    `csv:"model_label"`
	BoardLabel        string    `csv:"board_label"`
	KintoneRecordID   string    `csv:"kintone_record_id"`
}

// NewDefectRecord constructs a DefectRecord, generating the deterministic ID
// and insert timestamp when they are unset.
func NewDefectRecord(d DefectRecord) DefectRecord {
	if d.ID == "" {
		d.ID = DefectID(d.LotNumber, d.CurrentBoardIndex, d.DefectNumber)
	}
	if d.InsertDatetime.IsZero() {
		d.InsertDatetime = time.Now()
	}
	return d
}

// DefectID derives the deterministic record ID from the identifying fields.
// Uses a v5 UUID over the DNS namespace so IDs are stable across hosts.
func DefectID(lotNumber string, boardIndex, defectNumber int) string {
	name := fmt.Sprintf("%s_%d_%d", lotNumber, boardIndex, defectNumber)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// Key returns the unique record ID.
func (d DefectRecord) Key() string { return d.ID }

// TableName returns the defect table name.
func (d DefectRecord) TableName() string { return DefectTable }

// Columns returns the column names in insertion order.
func (d DefectRecord) Columns() []string {
	return []string{
		"id", "line_name", "model_code", "lot_number", "current_board_index",
		"defect_number", "serial", "reference", "defect_name", "x", "y",
		"aoi_user", "insert_datetime", "model_label", "board_label",
		"kintone_record_id",
	}
}

// Values returns the column values in the same order as Columns.
func (d DefectRecord) Values() []any {
	return []any{
		d.ID, d.LineName, d.ModelCode, d.LotNumber, d.CurrentBoardIndex,
		d.DefectNumber, d.Serial, d.Reference, d.DefectName, d.X, d.Y,
		d.AOIUser, FormatTimestamp(d.InsertDatetime), d.ModelLabel,
		d.BoardLabel, d.KintoneRecordID,
	}
}
