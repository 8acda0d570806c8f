// Package fileops reads and writes the CSV files exchanged with the AOI
// line tools and builds their well-known file names.
package fileops

import (
	"fmt"
	"path/filepath"
)

// RepairCSVPath builds the repair-list CSV path for one lot.
func RepairCSVPath(dataDir, lotNumber string) (string, error) {
	if lotNumber == "" {
		return "", fmt.Errorf("lot number is not set")
	}
	if dataDir == "" {
		return "", fmt.Errorf("data directory is not set")
	}
	return filepath.Join(dataDir, fmt.Sprintf("%s_repaird_list.csv", lotNumber)), nil
}

// DefectCSVPath builds the defect-list CSV path for one lot and captured
// image (image file name without extension).
func DefectCSVPath(dataDir, lotNumber, imageName string) (string, error) {
	if lotNumber == "" {
		return "", fmt.Errorf("lot number is not set")
	}
	if imageName == "" {
		return "", fmt.Errorf("image filename is not set")
	}
	if dataDir == "" {
		return "", fmt.Errorf("data directory is not set")
	}
	return filepath.Join(dataDir, fmt.Sprintf("%s_%s.csv", lotNumber, imageName)), nil
}
