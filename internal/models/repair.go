package models

import "time"

// RepairTable is the table name for repair records.
const RepairTable = "repaird_info"

// RepairRecord holds one repair action tied to a defect.
// The ID is the same as the ID of the DefectRecord being repaired.
type RepairRecord struct {
	ID              string    `validate:"required" csv:"id"`
	IsRepaird       bool      `csv:"is_repaird"`
	PartsType       string    `csv:"parts_type"`
	Operator        string    `csv:"operator"`
	InsertDatetime  time.Time `csv:"insert_datetime"`
	KintoneRecordID string    `csv:"kintone_record_id"`
}

// NewRepairRecord constructs a RepairRecord for the given defect ID,
// stamping the insert time when it is unset.
func NewRepairRecord(r RepairRecord) RepairRecord {
	if r.InsertDatetime.IsZero() {
		r.InsertDatetime = time.Now()
	}
	return r
}

// Key returns the defect ID this repair belongs to.
func (r RepairRecord) Key() string { return r.ID }

// TableName returns the repair table name.
func (r RepairRecord) TableName() string { return RepairTable }

// Columns returns the column names in insertion order.
func (r RepairRecord) Columns() []string {
	return []string{
		"id", "is_repaird", "parts_type", "operator", "insert_datetime",
		"kintone_record_id",
	}
}

// Values returns the column values in the same order as Columns.
func (r RepairRecord) Values() []any {
	return []any{
		r.ID, r.IsRepaird, r.PartsType, r.Operator,
		FormatTimestamp(r.InsertDatetime), r.KintoneRecordID,
	}
}
