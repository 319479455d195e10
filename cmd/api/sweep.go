package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fiddyhq/autopublisher/config"
	"github.com/fiddyhq/autopublisher/pkg/archive"
	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/logger"
	"github.com/fiddyhq/autopublisher/pkg/scheduler"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one maintenance sweep and exit",
	Long: `Recovers stuck content items, purges expired failed and completed
queue items (archiving completed ones first when a bucket is configured),
purges old campaign events, and rolls over elapsed quota periods.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	db, err := database.NewClient(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	st := store.New(db)

	deps := scheduler.Deps{}
	if cfg.ArchiveBucket != "" {
		archiveService, err := archive.NewService(archive.Config{
			AWSAccessKeyID:     cfg.AWSAccessKeyID,
			AWSSecretAccessKey: cfg.AWSSecretAccessKey,
			AWSRegion:          cfg.AWSRegion,
			S3Bucket:           cfg.ArchiveBucket,
		})
		if err != nil {
			return fmt.Errorf("initialize archive service: %w", err)
		}
		deps.Archiver = archiveService
	}

	sched := scheduler.New(st, deps, scheduler.Config{
		StuckTimeout:       time.Duration(cfg.StuckTimeoutHours) * time.Hour,
		FailedRetention:    time.Duration(cfg.FailedRetentionDays) * 24 * time.Hour,
		CompletedRetention: time.Duration(cfg.CompletedRetentionDays) * 24 * time.Hour,
		EventRetention:     time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
		QuotaPeriod:        time.Duration(cfg.QuotaPeriodDays) * 24 * time.Hour,
	}, logger.New(cfg.LogLevel, cfg.LogFormat))

	result, runErr := sched.RunMaintenance(cmd.Context())
	if result != nil {
		fmt.Printf("Sweep complete: %d stuck recovered, %d failed purged, %d completed purged, %d events purged, %d quota periods reset\n",
			result.StuckRecovered, result.FailedPurged, result.CompletedPurged, result.EventsPurged, result.PeriodsReset)
	}
	return runErr
}
