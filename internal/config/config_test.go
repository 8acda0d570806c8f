package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfig_Defaults(t *testing.T) {
	// Save originals to restore after the test
	originalDBDir := DatabaseDir
	originalPolicy := DuplicatePolicy
	defer func() {
		DatabaseDir = originalDBDir
		DuplicatePolicy = originalPolicy
	}()

	viper.Reset()
	InitConfig()

	assert.Equal(t, "./database/", DatabaseDir)
	assert.Equal(t, "reject", DuplicatePolicy)
	assert.Equal(t, 0, BatchSize)
	assert.False(t, StrictLookup)
}

func TestDBPath(t *testing.T) {
	originalValue := DatabaseDir
	defer func() { DatabaseDir = originalValue }()

	SetDatabaseDir("/var/lib/aoi")
	assert.Equal(t, filepath.Join("/var/lib/aoi", DBFileName), DBPath())
}

func TestSetBatchSize(t *testing.T) {
	originalValue := BatchSize
	defer func() { BatchSize = originalValue }()

	SetBatchSize(25)
	assert.Equal(t, 25, BatchSize)
}
