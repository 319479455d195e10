// Package scheduler drives campaigns through the generation-to-publish
// pipeline on a timer: it polls for due campaigns, runs each through quota
// gating, content generation, humanization and publishing, and performs the
// daily maintenance sweeps.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fiddyhq/autopublisher/pkg/generation"
	"github.com/fiddyhq/autopublisher/pkg/logger"
	"github.com/fiddyhq/autopublisher/pkg/metrics"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/secrets"
	"github.com/fiddyhq/autopublisher/pkg/store"
	"github.com/fiddyhq/autopublisher/pkg/wordpress"
)

// Registered job names, surfaced through Status.
const (
	jobDuePoll     = "due-campaign-poll"
	jobMaintenance = "daily-maintenance"
)

// Daily at 3 AM.
const maintenanceSchedule = "0 3 * * *"

// ContentGenerator produces post content and featured images from campaign
// parameters.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, campaign *models.Campaign, opts generation.Options) (*generation.Result, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// BodyHumanizer applies a campaign's imperfection transformations to a
// generated body.
type BodyHumanizer interface {
	Humanize(body string, imperfections []string) string
}

// Publisher pushes finished content to a publish-target site.
type Publisher interface {
	Publish(ctx context.Context, target wordpress.Target, post *wordpress.Post) (*wordpress.PublishResult, error)
}

// Archiver stores content items somewhere cold before the retention sweep
// deletes them.
type Archiver interface {
	ArchiveContent(ctx context.Context, items []*models.ContentItem) error
}

// Deps are the collaborators the scheduler drives.
type Deps struct {
	Generator ContentGenerator
	Humanizer BodyHumanizer
	Publisher Publisher
	Cipher    *secrets.Cipher
	Archiver  Archiver         // optional; nil skips archival before purging
	Metrics   *metrics.Metrics // optional; nil records nothing
}

// Config controls polling cadence, per-call timeouts and retention windows.
type Config struct {
	PollInterval       time.Duration // default: 5m
	BatchSize          int           // default: 10 campaigns per tick
	GenerationTimeout  time.Duration // default: 2m
	PublishTimeout     time.Duration // default: 30s
	StuckTimeout       time.Duration // default: 2h
	FailedRetention    time.Duration // default: 7 days
	CompletedRetention time.Duration // default: 30 days
	EventRetention     time.Duration // default: 90 days
	QuotaPeriod        time.Duration // default: 30 days
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = 2 * time.Minute
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 30 * time.Second
	}
	if c.StuckTimeout <= 0 {
		c.StuckTimeout = 2 * time.Hour
	}
	if c.FailedRetention <= 0 {
		c.FailedRetention = 7 * 24 * time.Hour
	}
	if c.CompletedRetention <= 0 {
		c.CompletedRetention = 30 * 24 * time.Hour
	}
	if c.EventRetention <= 0 {
		c.EventRetention = 90 * 24 * time.Hour
	}
	if c.QuotaPeriod <= 0 {
		c.QuotaPeriod = 30 * 24 * time.Hour
	}
}

// Scheduler is the process-wide orchestration component. One instance is
// constructed at startup and shared by the periodic jobs and the manual
// trigger endpoint.
type Scheduler struct {
	store     *store.Store
	generator ContentGenerator
	humanizer BodyHumanizer
	publisher Publisher
	cipher    *secrets.Cipher
	archiver  Archiver
	metrics   *metrics.Metrics
	cfg       Config
	logger    logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a scheduler. Call Start to register the periodic jobs.
func New(st *store.Store, deps Deps, cfg Config, log logger.Logger) *Scheduler {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Default()
	}

	return &Scheduler{
		store:     st,
		generator: deps.Generator,
		humanizer: deps.Humanizer,
		publisher: deps.Publisher,
		cipher:    deps.Cipher,
		archiver:  deps.Archiver,
		metrics:   deps.Metrics,
		cfg:       cfg,
		logger:    log,
	}
}

// Start registers the periodic jobs and begins ticking. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("scheduler already running")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.PollInterval), s.pollJob); err != nil {
		return fmt.Errorf("register poll job: %w", err)
	}
	if _, err := s.cron.AddFunc(maintenanceSchedule, s.maintenanceJob); err != nil {
		return fmt.Errorf("register maintenance job: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started",
		"poll_interval", s.cfg.PollInterval.String(),
		"batch_size", s.cfg.BatchSize,
	)
	return nil
}

// Stop deregisters the jobs and waits for any in-flight run to finish. Safe
// to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Status reports whether the scheduler is running and which jobs are
// registered.
type Status struct {
	Running bool     `json:"running"`
	Jobs    []string `json:"jobs,omitempty"`
}

// Status returns the current lifecycle state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{Running: s.running}
	if s.running {
		status.Jobs = []string{jobDuePoll, jobMaintenance}
	}
	return status
}

// TriggerCampaignProcessing runs one poll pass synchronously, on demand,
// without disturbing the periodic schedule. The conditional campaign claim
// keeps a manual trigger racing a periodic tick from double-processing the
// same due cycle.
func (s *Scheduler) TriggerCampaignProcessing(ctx context.Context) *TriggerResult {
	s.logger.Info("manual campaign processing triggered")
	return s.ProcessDueCampaigns(ctx)
}

// pollJob is the periodic due-campaign pass. The tick budget bounds the
// damage a hung external service can do to the schedule.
func (s *Scheduler) pollJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result := s.ProcessDueCampaigns(ctx)
	if result.Processed > 0 || len(result.Errors) > 0 {
		s.logger.Info("poll tick finished",
			"processed", result.Processed,
			"published", result.Published,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"errors", len(result.Errors),
		)
	}
}

func (s *Scheduler) maintenanceJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.RunMaintenance(ctx)
	if err != nil {
		s.logger.Error("maintenance sweep finished with errors", "error", err)
	}
	s.logger.Info("maintenance sweep finished",
		"stuck_recovered", result.StuckRecovered,
		"failed_purged", result.FailedPurged,
		"completed_purged", result.CompletedPurged,
		"events_purged", result.EventsPurged,
		"periods_reset", result.PeriodsReset,
	)
}
