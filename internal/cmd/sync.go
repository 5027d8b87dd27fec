// Package cmd holds the CLI command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"calsync/internal/config"
	"calsync/internal/dedupe"
	appLog "calsync/internal/log"
	"calsync/internal/model"
	"calsync/internal/provider"
	"calsync/internal/provider/icsdir"
	"calsync/internal/sync"
)

// AppName is the binary name used in help output.
const AppName = "calsync"

var syncFlags = []cli.Flag{
	&cli.StringFlag{
		Name:   "config",
		Usage:  "Path to the YAML config file",
		EnvVar: "CALSYNC_CONFIG",
	},
	&cli.StringFlag{
		Name:  "calendar-dir",
		Usage: "Directory of per-account .ics calendar files",
	},
	&cli.StringFlag{
		Name:  "dest",
		Usage: "Destination account email (required)",
	},
	&cli.IntFlag{
		Name:  "before-days",
		Usage: "Days before today included in the sync window",
		Value: 1,
	},
	&cli.IntFlag{
		Name:  "after-days",
		Usage: "Days after today included in the sync window",
		Value: 7,
	},
	&cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Report what would be created without writing anything",
	},
	&cli.StringSliceFlag{
		Name:  "folder",
		Usage: "Extra folder name treated as a calendar source (repeatable)",
	},
	&cli.StringSliceFlag{
		Name:  "exclude",
		Usage: "Folder name substring to exclude (repeatable)",
	},
	&cli.BoolFlag{
		Name:  "verbose",
		Usage: "Output debug diagnostics",
	},
	&cli.BoolFlag{
		Name:  "abbreviate",
		Usage: "Abbreviate copied subjects to a tag + fragment form",
	},
	&cli.StringFlag{
		Name:  "match-policy",
		Usage: "Duplicate detection policy: subject or subject-time",
	},
}

// SyncCmd copies events from all source stores into the destination
// calendar once.
var SyncCmd = cli.Command{
	Name:   "sync",
	Usage:  "Copy calendar events from every account into the destination calendar",
	Flags:  syncFlags,
	Action: runSync,
}

func runSync(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	appLog.SetVerbose(cfg.Verbose)

	if cfg.Destination == "" {
		return errors.New("destination account is required (--dest)")
	}

	ctx := context.Background()
	prov, err := provider.Acquire(ctx, func(context.Context) (provider.Provider, error) {
		return icsdir.Open(cfg.CalendarDir)
	})
	if err != nil {
		return err
	}

	report, err := runOnce(ctx, prov, cfg)
	if err != nil {
		return err
	}
	appLog.Info("sync finished",
		"created", report.Created,
		"would_create", report.WouldCreate,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return nil
}

// runOnce performs one full sync run with a freshly computed window.
func runOnce(ctx context.Context, prov provider.Provider, cfg *config.Config) (*sync.Report, error) {
	policy, err := dedupe.ParsePolicy(cfg.MatchPolicy)
	if err != nil {
		return nil, err
	}
	engine := sync.New(prov, os.Stdout)
	return engine.Run(ctx, sync.Options{
		Window:       model.NewWindow(time.Now(), cfg.BeforeDays, cfg.AfterDays),
		Destination:  cfg.Destination,
		ExtraFolders: cfg.ExtraFolders,
		Exclusions:   cfg.Exclusions,
		DryRun:       cfg.DryRun,
		Abbreviate:   cfg.Abbreviate,
		Policy:       policy,
	})
}

// loadConfig reads the config file (when given) and applies CLI flag
// overrides on top. Flags win over file values; file values win over
// defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()

	if c.IsSet("before-days") {
		cfg.BeforeDays = c.Int("before-days")
	}
	if c.IsSet("after-days") {
		cfg.AfterDays = c.Int("after-days")
	}
	if c.IsSet("dest") {
		cfg.Destination = c.String("dest")
	}
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}
	if c.IsSet("folder") {
		cfg.ExtraFolders = c.StringSlice("folder")
	}
	if c.IsSet("exclude") {
		cfg.Exclusions = c.StringSlice("exclude")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if c.IsSet("abbreviate") {
		cfg.Abbreviate = c.Bool("abbreviate")
	}
	if c.IsSet("match-policy") {
		cfg.MatchPolicy = c.String("match-policy")
	}
	if c.IsSet("calendar-dir") {
		cfg.CalendarDir = c.String("calendar-dir")
	}
	if c.IsSet("schedule") {
		cfg.Schedule = c.String("schedule")
	}

	return cfg, nil
}
