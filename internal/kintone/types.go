package kintone

import (
	"time"

	"github.com/aoikanri/aoidata/internal/models"
)

// field wraps a value the way the kintone record API expects it.
type field struct {
	Value any `json:"value"`
}

// updateKey selects the app field used for upsert matching.
type updateKey struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// upsertRecord is one entry in a bulk upsert request.
type upsertRecord struct {
	UpdateKey updateKey        `json:"updateKey"`
	Revision  int              `json:"revision"`
	Record    map[string]field `json:"record"`
}

// upsertRequest is the body of a PUT /records.json bulk upsert.
type upsertRequest struct {
	App     int            `json:"app"`
	Records []upsertRecord `json:"records"`
	Upsert  bool           `json:"upsert"`
}

// upsertResponse carries the remote IDs assigned to the upserted records.
type upsertResponse struct {
	Records []struct {
		ID       string `json:"id"`
		Revision string `json:"revision"`
	} `json:"records"`
}

// deleteRequest is the body of a DELETE /records.json call.
type deleteRequest struct {
	App int      `json:"app"`
	IDs []string `json:"ids"`
}

// errorResponse is kintone's error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func defectUpsertRecords(defects []models.DefectRecord) []upsertRecord {
	records := make([]upsertRecord, len(defects))
	for i, d := range defects {
		records[i] = upsertRecord{
			UpdateKey: updateKey{Field: "unique_id", Value: d.ID},
			Revision:  -1,
			Record: map[string]field{
				"unique_id":           {Value: d.ID},
				"line_name":           {Value: d.LineName},
				"model_code":          {Value: d.ModelCode},
				"lot_number":          {Value: d.LotNumber},
				"current_board_index": {Value: d.CurrentBoardIndex},
				"defect_number":       {Value: d.DefectNumber},
				"serial":              {Value: d.Serial},
				"reference":           {Value: d.Reference},
				"defect_name":         {Value: d.DefectName},
				"x":                   {Value: d.X},
				"y":                   {Value: d.Y},
				"aoi_user":            {Value: d.AOIUser},
				"insert_date":         {Value: d.InsertDatetime.Format(time.RFC3339)},
				"model_label":         {Value: d.ModelLabel},
				"board_label":         {Value: d.BoardLabel},
			},
		}
	}
	return records
}

func repairUpsertRecords(repairs []models.RepairRecord) []upsertRecord {
	records := make([]upsertRecord, len(repairs))
	for i, r := range repairs {
		records[i] = upsertRecord{
			UpdateKey: updateKey{Field: "unique_id", Value: r.ID},
			Revision:  -1,
			Record: map[string]field{
				"unique_id":   {Value: r.ID},
				"is_repaird":  {Value: r.IsRepaird},
				"parts_type":  {Value: r.PartsType},
				"operator":    {Value: r.Operator},
				"insert_date": {Value: r.InsertDatetime.Format(time.RFC3339)},
			},
		}
	}
	return records
}
