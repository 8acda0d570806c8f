package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/aoikanri/aoidata/internal/config"
	"github.com/aoikanri/aoidata/internal/datastore"
	"github.com/aoikanri/aoidata/internal/errors"
	"github.com/aoikanri/aoidata/internal/fileops"
	"github.com/aoikanri/aoidata/internal/imageexport"
	"github.com/aoikanri/aoidata/internal/kintone"
	"github.com/aoikanri/aoidata/internal/models"
	"github.com/aoikanri/aoidata/internal/tui"
)

var (
	selectLot        = tui.SelectLot
	newKintoneClient = kintone.NewClient
)

// CLI represents the complete command structure for the aoidata application
type CLI struct {
	// Global flags
	DatabaseDir     string `help:"Directory holding the local store file"`
	DataDir         string `help:"Directory CSV exports are read from and written to"`
	BatchSize       int    `help:"Override the auto-detected insert chunk size"`
	DuplicatePolicy string `help:"Behavior when a record key already exists" enum:"reject,upsert" default:"reject"`
	StrictLookup    bool   `help:"Fail point lookups when the record does not exist"`

	Import      ImportCmd      `cmd:"" help:"Import CSV exports into the local store"`
	Sync        SyncCmd        `cmd:"" help:"Push unsynced records to the kintone app"`
	Merge       MergeCmd       `cmd:"" help:"Merge another store file into a target store"`
	ExportImage ExportImageCmd `cmd:"" name:"export-image" help:"Export a board image with the defect marked"`
	Delete      DeleteCmd      `cmd:"" help:"Delete stored records"`
}

// ImportCmd represents the import command and its subcommands
type ImportCmd struct {
	Defects ImportDefectsCmd `cmd:"" help:"Import defect records from an AOI CSV export"`
	Repairs ImportRepairsCmd `cmd:"" help:"Import repair records from a repair list CSV"`
}

// ImportDefectsCmd imports one defect CSV file
type ImportDefectsCmd struct {
	Input   string `short:"f" help:"Path to the defect CSV file"`
	Lot     string `help:"Lot number used with --image to derive the CSV path"`
	Image   string `help:"Board image name used with --lot to derive the CSV path"`
	Mapping string `help:"YAML defect name mapping file applied before storing"`
}

// ImportRepairsCmd imports one repair list CSV file
type ImportRepairsCmd struct {
	Input string `short:"f" help:"Path to the repair list CSV file"`
	Lot   string `help:"Lot number used to derive the CSV path"`
}

// SyncCmd pushes unsynced records to kintone
type SyncCmd struct {
	Subdomain string `help:"Cybozu subdomain (defaults to kintone.subdomain in config)"`
	AppID     int    `help:"Kintone app ID (defaults to kintone.appid in config)"`
	APIToken  string `help:"API token (defaults to KINTONE_API_TOKEN)"`
	DryRun    bool   `help:"List what would be synced without calling the API"`
}

// MergeCmd merges a source store file into a target store file
type MergeCmd struct {
	Source          string   `arg:"" help:"Path of the store file to read"`
	Target          string   `arg:"" optional:"" help:"Path of the store file to merge into (defaults to the configured store)"`
	DeleteDefectIDs []string `help:"Defect IDs to remove from the target after merging"`
	DeleteRepairIDs []string `help:"Repair IDs to remove from the target after merging"`
}

// ExportImageCmd renders a stored defect onto its board image
type ExportImageCmd struct {
	ImagePath     string `arg:"" help:"Path to the captured board image"`
	ID            string `help:"Defect record ID"`
	Lot           string `help:"Lot number used with --board and --defect-number instead of --id"`
	Board         int    `help:"Board index within the lot"`
	DefectNumber  int    `help:"Defect number on the board"`
	OutputDir     string `short:"o" help:"Output directory (defaults to the data directory)"`
	Format        string `help:"Output format: png, jpeg or bmp" default:"png"`
	MaxSize       string `help:"Limit the image portion, e.g. 800x600"`
	TextAreaWidth int    `help:"Width of the info panel appended on the right"`
	Quality       int    `help:"JPEG quality"`
	Filename      string `help:"Output file name without extension"`
}

// DeleteCmd deletes stored records for a lot or a single defect
type DeleteCmd struct {
	Lot string `help:"Lot number to delete; opens an interactive picker when omitted"`
	ID  string `help:"Delete a single defect and its repair by record ID"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("aoidata"),
		kong.Description("Manage AOI inspection and repair records in a local store and kintone."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("database.dir", "./database/")
	viper.SetDefault("database.duplicatepolicy", "reject")
	viper.SetDefault("data.dir", "./data/")

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("kintone.apitoken", "KINTONE_API_TOKEN"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	if cli.DatabaseDir != "" {
		viper.Set("database.dir", cli.DatabaseDir)
	}
	if cli.DataDir != "" {
		viper.Set("data.dir", cli.DataDir)
	}
	if cli.BatchSize > 0 {
		viper.Set("database.batchsize", cli.BatchSize)
	}
	viper.Set("database.duplicatepolicy", cli.DuplicatePolicy)
	if cli.StrictLookup {
		viper.Set("database.strictlookup", true)
	}

	config.InitConfig()
}

func storeOptions() datastore.Options {
	return datastore.Options{
		BatchSize:       config.BatchSize,
		DuplicatePolicy: datastore.DuplicatePolicy(config.DuplicatePolicy),
		StrictLookup:    config.StrictLookup,
	}
}

// withStore opens the configured store for the duration of fn, creating
// the database directory on first use.
func withStore(fn func(*datastore.Store) error) error {
	if err := os.MkdirAll(config.DatabaseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return datastore.With(config.DBPath(), storeOptions(), fn)
}

// Run methods for each command

func (i *ImportDefectsCmd) Run() error {
	input := i.Input
	if input == "" && i.Lot != "" && i.Image != "" {
		path, err := fileops.DefectCSVPath(config.DataDir, i.Lot, i.Image)
		if err != nil {
			return err
		}
		input = path
	}
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input or --lot with --image)")
	}

	defects, err := fileops.ReadDefectCSV(input)
	if err != nil {
		return err
	}
	if len(defects) == 0 {
		slog.Info("No defect records to import", "file", input)
		return nil
	}

	if i.Mapping != "" {
		mapping, err := fileops.ReadDefectMapping(i.Mapping)
		if err != nil {
			return err
		}
		for idx := range defects {
			defects[idx].DefectName = mapping.Canonical(defects[idx].DefectName)
		}
	}

	records := make([]models.Record, len(defects))
	for idx, d := range defects {
		records[idx] = d
	}

	return withStore(func(s *datastore.Store) error {
		if err := s.EnsureSchema(); err != nil {
			return err
		}
		result, err := s.InsertBatch(records)
		return reportBatch(input, result, err)
	})
}

func (r *ImportRepairsCmd) Run() error {
	input := r.Input
	if input == "" && r.Lot != "" {
		path, err := fileops.RepairCSVPath(config.DataDir, r.Lot)
		if err != nil {
			return err
		}
		input = path
	}
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input or --lot)")
	}

	repairs, err := fileops.ReadRepairCSV(input)
	if err != nil {
		return err
	}
	if len(repairs) == 0 {
		slog.Info("No repair records to import", "file", input)
		return nil
	}

	records := make([]models.Record, len(repairs))
	for idx, rec := range repairs {
		records[idx] = rec
	}

	return withStore(func(s *datastore.Store) error {
		if err := s.EnsureSchema(); err != nil {
			return err
		}
		result, err := s.InsertBatch(records)
		return reportBatch(input, result, err)
	})
}

func reportBatch(source string, result datastore.BatchResult, err error) error {
	if partial := errors.AsPartialBatchError(err); partial != nil {
		slog.Error("Import stopped before completion",
			"file", source,
			"committed", len(partial.Committed),
			"uncommitted", len(partial.Uncommitted))
		return err
	}
	if err != nil {
		return err
	}

	slog.Info("Import finished",
		"file", source,
		"inserted", len(result.Inserted),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed))
	if len(result.Failed) > 0 {
		slog.Warn("Some records were rejected", "keys", result.Failed)
	}
	return nil
}

func (s *SyncCmd) Run() error {
	subdomain := s.Subdomain
	if subdomain == "" {
		subdomain = viper.GetString("kintone.subdomain")
	}
	appID := s.AppID
	if appID == 0 {
		appID = viper.GetInt("kintone.appid")
	}
	apiToken := s.APIToken
	if apiToken == "" {
		apiToken = viper.GetString("kintone.apitoken")
	}
	if subdomain == "" || apiToken == "" {
		return fmt.Errorf("kintone credentials are required (set kintone.subdomain in config and KINTONE_API_TOKEN)")
	}

	return withStore(func(store *datastore.Store) error {
		if err := store.EnsureSchema(); err != nil {
			return err
		}
		defects, err := store.ListUnsyncedDefects()
		if err != nil {
			return err
		}
		repairs, err := store.ListUnsyncedRepairs()
		if err != nil {
			return err
		}
		if len(defects) == 0 && len(repairs) == 0 {
			slog.Info("Nothing to sync")
			return nil
		}

		if s.DryRun {
			slog.Info("Dry run, skipping API calls",
				"unsynced_defects", len(defects),
				"unsynced_repairs", len(repairs))
			return nil
		}

		client, err := newKintoneClient(subdomain, appID, apiToken)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if len(defects) > 0 {
			synced, err := client.PostDefectRecords(ctx, defects)
			if err != nil {
				return fmt.Errorf("defect sync failed: %w", err)
			}
			for _, d := range synced {
				if err := store.SetKintoneRecordID(models.DefectTable, d.ID, d.KintoneRecordID); err != nil {
					return err
				}
			}
			slog.Info("Synced defect records", "count", len(synced))
		}
		if len(repairs) > 0 {
			synced, err := client.PostRepairRecords(ctx, repairs)
			if err != nil {
				return fmt.Errorf("repair sync failed: %w", err)
			}
			for _, r := range synced {
				if err := store.SetKintoneRecordID(models.RepairTable, r.ID, r.KintoneRecordID); err != nil {
					return err
				}
			}
			slog.Info("Synced repair records", "count", len(synced))
		}
		return nil
	})
}

func (m *MergeCmd) Run() error {
	target := m.Target
	if target == "" {
		target = config.DBPath()
	}
	if m.Source == target {
		return fmt.Errorf("source and target store are the same file: %s", target)
	}

	return datastore.Merge(m.Source, target, datastore.MergeOptions{
		DeleteDefectIDs: m.DeleteDefectIDs,
		DeleteRepairIDs: m.DeleteRepairIDs,
	})
}

func (e *ExportImageCmd) Run() error {
	id := e.ID
	if id == "" && e.Lot != "" {
		id = models.DefectID(e.Lot, e.Board, e.DefectNumber)
	}
	if id == "" {
		return fmt.Errorf("defect identity is required (provide via --id or --lot with --board and --defect-number)")
	}

	outputDir := e.OutputDir
	if outputDir == "" {
		outputDir = config.DataDir
	}

	return withStore(func(s *datastore.Store) error {
		if err := s.EnsureSchema(); err != nil {
			return err
		}
		defect, err := s.GetDefect(id)
		if err != nil {
			return err
		}
		if defect == nil {
			return fmt.Errorf("defect %s not found", id)
		}

		path, err := imageexport.Export(*defect, e.ImagePath, outputDir, imageexport.Options{
			Format:        e.Format,
			MaxImageSize:  e.MaxSize,
			TextAreaWidth: e.TextAreaWidth,
			Quality:       e.Quality,
			Filename:      e.Filename,
		})
		if err != nil {
			return err
		}
		slog.Info("Exported marked board image", "path", path)
		return nil
	})
}

func (d *DeleteCmd) Run() error {
	return withStore(func(s *datastore.Store) error {
		if err := s.EnsureSchema(); err != nil {
			return err
		}
		if d.ID != "" {
			return deleteSingle(s, d.ID)
		}

		lot := d.Lot
		if lot == "" {
			selected, err := pickLot(s)
			if err != nil || selected == "" {
				return err
			}
			lot = selected
		}
		return deleteLot(s, lot)
	})
}

func deleteSingle(s *datastore.Store, id string) error {
	repairs, err := s.DeleteRepair(id)
	if err != nil {
		return err
	}
	defects, err := s.DeleteDefect(id)
	if err != nil {
		return err
	}
	slog.Info("Deleted record", "id", id, "defects", defects, "repairs", repairs)
	return nil
}

func deleteLot(s *datastore.Store, lot string) error {
	defects, err := s.ListDefectsByLot(lot)
	if err != nil {
		return err
	}

	var repairCount int64
	for _, d := range defects {
		affected, err := s.DeleteRepair(d.ID)
		if err != nil {
			return err
		}
		repairCount += affected
	}

	defectCount, err := s.DeleteDefectsByLot(lot)
	if err != nil {
		return err
	}
	slog.Info("Deleted lot", "lot", lot, "defects", defectCount, "repairs", repairCount)
	return nil
}

// pickLot opens the interactive picker over the stored lots. Returns an
// empty lot when the user cancels.
func pickLot(s *datastore.Store) (string, error) {
	lotNumbers, err := s.ListLotNumbers()
	if err != nil {
		return "", err
	}

	lots := make([]tui.LotInfo, 0, len(lotNumbers))
	for _, lot := range lotNumbers {
		defects, err := s.ListDefectsByLot(lot)
		if err != nil {
			return "", err
		}
		repairCount, err := s.CountRepairsByLot(lot)
		if err != nil {
			return "", err
		}
		lots = append(lots, tui.LotInfo{
			LotNumber:   lot,
			DefectCount: len(defects),
			RepairCount: repairCount,
		})
	}

	result, err := selectLot("Select a lot to delete", lots)
	if err != nil {
		return "", err
	}
	if result.Action != tui.ActionSelected || result.Selection == nil {
		slog.Info("No lot selected, nothing deleted")
		return "", nil
	}
	return result.Selection.LotNumber, nil
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("AOIDATA_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
