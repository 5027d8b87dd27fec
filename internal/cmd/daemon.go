package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli"

	appLog "calsync/internal/log"
	"calsync/internal/provider"
	"calsync/internal/provider/icsdir"
)

// DaemonCmd runs the sync on a cron schedule until interrupted.
var DaemonCmd = cli.Command{
	Name:  "daemon",
	Usage: "Run the sync repeatedly on a cron schedule",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "schedule",
			Usage: "Cron spec for sync runs (e.g. \"*/30 * * * *\")",
		},
	}, syncFlags...),
	Action: runDaemon,
}

func runDaemon(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	appLog.SetVerbose(cfg.Verbose)

	if cfg.Destination == "" {
		return errors.New("destination account is required (--dest)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Validate the provider once up front with the retry budget; each
	// scheduled run re-opens it so changes to the calendar files between
	// runs are picked up.
	if _, err := provider.Acquire(ctx, func(context.Context) (provider.Provider, error) {
		return icsdir.Open(cfg.CalendarDir)
	}); err != nil {
		return err
	}

	cr := cron.New()
	if _, err := cr.AddFunc(cfg.Schedule, func() {
		prov, err := icsdir.Open(cfg.CalendarDir)
		if err != nil {
			appLog.Error("scheduled sync: provider unavailable", err)
			return
		}
		report, err := runOnce(ctx, prov, cfg)
		if err != nil {
			appLog.Error("scheduled sync failed", err)
			return
		}
		appLog.Info("scheduled sync finished",
			"created", report.Created,
			"would_create", report.WouldCreate,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	appLog.Info("daemon starting", "schedule", cfg.Schedule)
	cr.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLog.Info("signal received, shutting down", "signal", sig.String())

	cancel()
	<-cr.Stop().Done()
	return nil
}
