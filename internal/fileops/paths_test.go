package fileops

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRepairCSVPath(t *testing.T) {
	path, err := RepairCSVPath("/data", "LOT-001")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "LOT-001_repaird_list.csv"), path)
}

func TestRepairCSVPathMissingArgs(t *testing.T) {
	_, err := RepairCSVPath("/data", "")
	assert.Error(t, err)

	_, err = RepairCSVPath("", "LOT-001")
	assert.Error(t, err)
}

func TestDefectCSVPath(t *testing.T) {
	path, err := DefectCSVPath("/data", "LOT-001", "board_03")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "LOT-001_board_03.csv"), path)
}

func TestDefectCSVPathMissingArgs(t *testing.T) {
	_, err := DefectCSVPath("/data", "LOT-001", "")
	assert.Error(t, err)

	_, err = DefectCSVPath("/data", "", "board_03")
	assert.Error(t, err)

	_, err = DefectCSVPath("", "LOT-001", "board_03")
	assert.Error(t, err)
}
