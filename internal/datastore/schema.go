package datastore

// SQL schemas for the inspection record tables.
// Both tables are keyed by the deterministic record ID.

// DefectSchema defines the table for defect observations.
const DefectSchema = `
CREATE TABLE IF NOT EXISTS defect_info (
	id TEXT PRIMARY KEY NOT NULL,
	line_name TEXT NOT NULL DEFAULT '',
	model_code TEXT NOT NULL DEFAULT '',
	lot_number TEXT NOT NULL DEFAULT '',
	current_board_index INTEGER NOT NULL DEFAULT 0,
	defect_number INTEGER NOT NULL DEFAULT 0,
	serial TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	defect_name TEXT NOT NULL DEFAULT '',
	x REAL NOT NULL DEFAULT 0,
	y REAL NOT NULL DEFAULT 0,
	aoi_user TEXT NOT NULL DEFAULT '',
	insert_datetime TEXT NOT NULL DEFAULT '',
	model_label TEXT NOT NULL DEFAULT '',
	board_label TEXT NOT NULL DEFAULT '',
	kintone_record_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_defect_lot_number ON defect_info(lot_number);
CREATE INDEX IF NOT EXISTS idx_defect_insert_datetime ON defect_info(insert_datetime);
`

// RepairSchema defines the table for repair actions.
// The id column references the defect being repaired.
const RepairSchema = `
CREATE TABLE IF NOT EXISTS repaird_info (
	id TEXT PRIMARY KEY NOT NULL,
	is_repaird INTEGER NOT NULL DEFAULT 0,
	parts_type TEXT NOT NULL DEFAULT '',
	operator TEXT NOT NULL DEFAULT '',
	insert_datetime TEXT NOT NULL DEFAULT '',
	kintone_record_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_repaird_insert_datetime ON repaird_info(insert_datetime);
`

// AllSchemas contains every table schema for initialization.
var AllSchemas = []string{
	DefectSchema,
	RepairSchema,
}

// ValidTableNames is the whitelist of allowed table names.
// Used to prevent SQL injection when interpolating table names.
var ValidTableNames = map[string]bool{
	"defect_info":  true,
	"repaird_info": true,
}

// tableColumns lists the expected column set per table, used to detect an
// incompatible pre-existing schema without altering it.
var tableColumns = map[string][]string{
	"defect_info": {
		"id", "line_name", "model_code", "lot_number", "current_board_index",
		"defect_number", "serial", "reference", "defect_name", "x", "y",
		"aoi_user", "insert_datetime", "model_label", "board_label",
		"kintone_record_id",
	},
	"repaird_info": {
		"id", "is_repaird", "parts_type", "operator", "insert_datetime",
		"kintone_record_id",
	},
}
