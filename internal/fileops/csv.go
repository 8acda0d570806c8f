package fileops

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aoikanri/aoidata/internal/models"
)

// utf8BOM is prepended on writes so the files open correctly in Excel,
// and stripped on reads. The line tools emit BOM-prefixed CSV.
const utf8BOM = "\xef\xbb\xbf"

var validate = validator.New()

var defectHeader = []string{
	"id", "line_name", "model_code", "lot_number", "current_board_index",
	"defect_number", "serial", "reference", "defect_name", "x", "y",
	"aoi_user", "insert_datetime", "model_label", "board_label",
	"kintone_record_id",
}

var repairHeader = []string{
	"id", "is_repaird", "parts_type", "operator", "insert_datetime",
	"kintone_record_id",
}

// ReadDefectCSV loads defect records from a CSV file. A missing file yields
// an empty list. Rows that fail required-field validation are skipped with
// a warning so one bad row does not lose the rest of the file.
func ReadDefectCSV(path string) ([]models.DefectRecord, error) {
	rows, index, err := readCSV(path)
	if err != nil || rows == nil {
		return nil, err
	}

	var defects []models.DefectRecord
	for _, row := range rows {
		d, err := parseDefectRow(row, index)
		if err != nil {
			slog.Warn("Skipping invalid defect row", "path", path, "error", err)
			continue
		}
		if err := validate.Struct(d); err != nil {
			slog.Warn("Skipping defect row with missing required fields", "path", path, "error", err)
			continue
		}
		defects = append(defects, d)
	}
	return defects, nil
}

// ReadRepairCSV loads repair records from a CSV file. A missing file yields
// an empty list.
func ReadRepairCSV(path string) ([]models.RepairRecord, error) {
	rows, index, err := readCSV(path)
	if err != nil || rows == nil {
		return nil, err
	}

	var repairs []models.RepairRecord
	for _, row := range rows {
		r, err := parseRepairRow(row, index)
		if err != nil {
			slog.Warn("Skipping invalid repair row", "path", path, "error", err)
			continue
		}
		if err := validate.Struct(r); err != nil {
			slog.Warn("Skipping repair row with missing required fields", "path", path, "error", err)
			continue
		}
		repairs = append(repairs, r)
	}
	return repairs, nil
}

// WriteDefectCSV saves defect records to a BOM-prefixed CSV file.
func WriteDefectCSV(defects []models.DefectRecord, path string) error {
	rows := make([][]string, len(defects))
	for i, d := range defects {
		rows[i] = []string{
			d.ID, d.LineName, d.ModelCode, d.LotNumber,
			strconv.Itoa(d.CurrentBoardIndex), strconv.Itoa(d.DefectNumber),
			d.Serial, d.Reference, d.DefectName,
			formatFloat(d.X), formatFloat(d.Y),
			d.AOIUser, d.InsertDatetime.Format(time.RFC3339Nano),
			d.ModelLabel, d.BoardLabel, d.KintoneRecordID,
		}
	}
	return writeCSV(path, defectHeader, rows)
}

// WriteRepairCSV saves repair records to a BOM-prefixed CSV file.
func WriteRepairCSV(repairs []models.RepairRecord, path string) error {
	rows := make([][]string, len(repairs))
	for i, r := range repairs {
		rows[i] = []string{
			r.ID, strconv.FormatBool(r.IsRepaird), r.PartsType, r.Operator,
			r.InsertDatetime.Format(time.RFC3339Nano), r.KintoneRecordID,
		}
	}
	return writeCSV(path, repairHeader, rows)
}

// readCSV returns data rows plus a column-name index built from the header.
// A missing file returns (nil, nil, nil).
func readCSV(path string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}
	return rows, index, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseDefectRow(row []string, index map[string]int) (models.DefectRecord, error) {
	get := fieldGetter(row, index)

	boardIndex, err := parseInt(get("current_board_index"))
	if err != nil {
		return models.DefectRecord{}, fmt.Errorf("current_board_index: %w", err)
	}
	defectNumber, err := parseInt(get("defect_number"))
	if err != nil {
		return models.DefectRecord{}, fmt.Errorf("defect_number: %w", err)
	}
	x, err := parseFloat(get("x"))
	if err != nil {
		return models.DefectRecord{}, fmt.Errorf("x: %w", err)
	}
	y, err := parseFloat(get("y"))
	if err != nil {
		return models.DefectRecord{}, fmt.Errorf("y: %w", err)
	}

	return models.NewDefectRecord(models.DefectRecord{
		ID:                get("id"),
		LineName:          get("line_name"),
		ModelCode:         get("model_code"),
		LotNumber:         get("lot_number"),
		CurrentBoardIndex: boardIndex,
		DefectNumber:      defectNumber,
		Serial:            get("serial"),
		Reference:         get("reference"),
		DefectName:        get("defect_name"),
		X:                 x,
		Y:                 y,
		AOIUser:           get("aoi_user"),
		InsertDatetime:    parseTime(get("insert_datetime")),
		ModelLabel:        get("model_label"),
		BoardLabel:        get("board_label"),
		KintoneRecordID:   get("kintone_record_id"),
	}), nil
}

func parseRepairRow(row []string, index map[string]int) (models.RepairRecord, error) {
	get := fieldGetter(row, index)

	isRepaird, err := parseBool(get("is_repaird"))
	if err != nil {
		return models.RepairRecord{}, fmt.Errorf("is_repaird: %w", err)
	}

	return models.NewRepairRecord(models.RepairRecord{
		ID:              get("id"),
		IsRepaird:       isRepaird,
		PartsType:       get("parts_type"),
		Operator:        get("operator"),
		InsertDatetime:  parseTime(get("insert_datetime")),
		KintoneRecordID: get("kintone_record_id"),
	}), nil
}

func fieldGetter(row []string, index map[string]int) func(string) string {
	return func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "", "false", "0", "未修理":
		return false, nil
	case "true", "1", "修理済み":
		return true, nil
	}
	return false, fmt.Errorf("unrecognized boolean value %q", value)
}

func parseTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
