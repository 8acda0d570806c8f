package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// DBFileName is the SQLite file created inside the configured database directory.
const DBFileName = "aoi_data.db"

// Global configuration variables
var (
	// DatabaseDir is the directory holding the local store file
	DatabaseDir string
	// DataDir is the directory CSV exports are read from and written to
	DataDir string
	// BatchSize overrides the auto-detected insert chunk size when > 0
	BatchSize int
	// DuplicatePolicy selects reject or upsert behavior for existing keys
	DuplicatePolicy string
	// StrictLookup makes point lookups fail on a miss
	StrictLookup bool
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("database.dir", "./database/")
	viper.SetDefault("database.duplicatepolicy", "reject")
	viper.SetDefault("data.dir", "./data/")

	// Get values from viper
	DatabaseDir = viper.GetString("database.dir")
	DataDir = viper.GetString("data.dir")
	BatchSize = viper.GetInt("database.batchsize")
	DuplicatePolicy = viper.GetString("database.duplicatepolicy")
	StrictLookup = viper.GetBool("database.strictlookup")
}

// DBPath returns the full path of the store file under the configured
// database directory.
func DBPath() string {
	return filepath.Join(DatabaseDir, DBFileName)
}

// SetDatabaseDir sets the database directory
func SetDatabaseDir(dir string) {
	DatabaseDir = dir
}

// SetBatchSize sets the chunk size override
func SetBatchSize(size int) {
	BatchSize = size
}
