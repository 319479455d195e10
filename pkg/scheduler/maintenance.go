package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

// Upper bound on items exported per sweep. New completions cannot enter the
// purge window mid-sweep (the cutoff is a month in the past), so listing
// then purging with the same cutoff stays consistent.
const archiveBatchLimit = 10000

// MaintenanceResult summarizes one maintenance sweep.
type MaintenanceResult struct {
	StuckRecovered  int64 `json:"stuck_recovered"`
	FailedPurged    int64 `json:"failed_purged"`
	CompletedPurged int64 `json:"completed_purged"`
	EventsPurged    int64 `json:"events_purged"`
	PeriodsReset    int64 `json:"periods_reset"`
}

// RunMaintenance reclaims stuck items, purges expired queue items and
// events, and rolls over quota periods. Each step runs even when an earlier
// one fails; the combined error is returned at the end.
func (s *Scheduler) RunMaintenance(ctx context.Context) (*MaintenanceResult, error) {
	now := time.Now().UTC()
	result := &MaintenanceResult{}
	var errs []error

	// Items claimed longer ago than the timeout are crash leftovers; no
	// item may remain claimed indefinitely.
	recovered, err := s.store.RecoverStuckItems(
		ctx,
		now.Add(-s.cfg.StuckTimeout),
		fmt.Sprintf("processing timed out after %s", s.cfg.StuckTimeout),
		now,
	)
	if err != nil {
		s.logger.Error("stuck item recovery failed", "error", err)
		errs = append(errs, err)
	} else {
		result.StuckRecovered = recovered
		if recovered > 0 {
			s.logger.Warn("recovered stuck content items", "count", recovered)
		}
	}

	failedPurged, err := s.store.PurgeContentItems(ctx, models.ContentStatusFailed, now.Add(-s.cfg.FailedRetention))
	if err != nil {
		s.logger.Error("failed item purge errored", "error", err)
		errs = append(errs, err)
	} else {
		result.FailedPurged = failedPurged
	}

	completedPurged, err := s.purgeCompleted(ctx, now.Add(-s.cfg.CompletedRetention))
	if err != nil {
		s.logger.Error("completed item purge errored", "error", err)
		errs = append(errs, err)
	} else {
		result.CompletedPurged = completedPurged
	}

	eventsPurged, err := s.store.PurgeEvents(ctx, now.Add(-s.cfg.EventRetention))
	if err != nil {
		s.logger.Error("event purge errored", "error", err)
		errs = append(errs, err)
	} else {
		result.EventsPurged = eventsPurged
	}

	periodsReset, err := s.store.ResetPeriodCounts(ctx, now.Add(-s.cfg.QuotaPeriod), now)
	if err != nil {
		s.logger.Error("quota period reset failed", "error", err)
		errs = append(errs, err)
	} else {
		result.PeriodsReset = periodsReset
	}

	return result, errors.Join(errs...)
}

// purgeCompleted exports expiring completed items to the archiver, when one
// is configured, before deleting them. An archive failure postpones the
// purge to the next sweep rather than dropping unexported rows.
func (s *Scheduler) purgeCompleted(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.archiver != nil {
		items, err := s.store.ListPurgeableContent(ctx, models.ContentStatusCompleted, cutoff, archiveBatchLimit)
		if err != nil {
			return 0, err
		}
		if len(items) > 0 {
			if err := s.archiver.ArchiveContent(ctx, items); err != nil {
				return 0, fmt.Errorf("archive completed items: %w", err)
			}
			s.logger.Info("archived completed content items", "count", len(items))
		}
	}
	return s.store.PurgeContentItems(ctx, models.ContentStatusCompleted, cutoff)
}
