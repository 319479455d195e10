package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/generation"
	"github.com/fiddyhq/autopublisher/pkg/logger"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/quota"
	"github.com/fiddyhq/autopublisher/pkg/wordpress"
)

// Per-campaign outcomes of one pass.
const (
	outcomePublished = "published"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// Pipeline stages, used as failure metric labels.
const (
	stageSite       = "site"
	stageGeneration = "generation"
	stagePublish    = "publish"
)

// TriggerResult summarizes one processing pass over the due campaigns.
type TriggerResult struct {
	Processed int      `json:"processed"`
	Published int      `json:"published"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// ProcessDueCampaigns selects the due campaigns, oldest first, and drives
// each through the pipeline. One campaign's failure never halts the loop
// over its siblings.
func (s *Scheduler) ProcessDueCampaigns(ctx context.Context) *TriggerResult {
	result := &TriggerResult{}
	now := time.Now().UTC()
	defer func() {
		s.metrics.RecordSchedulerCycle(time.Since(now))
	}()

	due, err := s.store.ListDueCampaigns(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("due campaign poll failed", "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if len(due) == 0 {
		return result
	}

	for _, campaign := range due {
		outcome, err := s.processCampaign(ctx, campaign)
		result.Processed++
		switch outcome {
		case outcomePublished:
			result.Published++
		case outcomeFailed:
			result.Failed++
		case outcomeSkipped:
			result.Skipped++
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("campaign %d: %v", campaign.ID, err))
		}
	}
	return result
}

// processCampaign runs one due campaign through quota gating, the claim
// writes and the pipeline. Panics are contained here so a bad campaign
// cannot take down the tick.
func (s *Scheduler) processCampaign(ctx context.Context, campaign *models.Campaign) (outcome string, err error) {
	runID := uuid.NewString()
	log := s.logger.With("campaign_id", campaign.ID, "run_id", runID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("campaign processing panicked", "panic", r)
			outcome = outcomeFailed
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	user, err := s.store.GetUser(ctx, campaign.UserID)
	if err != nil {
		log.Error("load campaign owner failed", "error", err)
		return outcomeFailed, err
	}

	// Quota gate. Denial is not an error: no queue item is created and
	// next-run stays put, so the campaign idles until the tracker allows
	// it again.
	if decision := quota.Check(user); !decision.Allowed {
		log.Info("publish quota reached, skipping campaign", "reason", decision.Reason)
		s.metrics.RecordQuotaDenial(user.Tier)
		s.recordEvent(ctx, campaign.ID, runID, models.EventLevelInfo, "publish skipped: "+decision.Reason)
		return outcomeSkipped, nil
	}

	now := time.Now().UTC()
	claimed, err := s.store.ClaimDueCampaign(ctx, campaign.ID, now, now.Add(campaign.Interval()))
	if err != nil {
		log.Error("campaign claim failed", "error", err)
		return outcomeFailed, err
	}
	if !claimed {
		// A concurrent pass (manual trigger vs periodic tick) took this
		// due cycle.
		log.Debug("campaign already claimed by a concurrent pass")
		return outcomeSkipped, nil
	}

	// From here the campaign must make forward progress no matter what:
	// next-run moves to now+interval even if the pipeline fails or panics.
	defer func() {
		next := time.Now().UTC().Add(campaign.Interval())
		if rerr := s.store.RescheduleCampaign(ctx, campaign.ID, next); rerr != nil {
			log.Error("campaign reschedule failed", "error", rerr)
		}
	}()

	// Approved titles are consumed before free-form generation.
	var titleItem *models.TitleItem
	if titleItem, err = s.store.NextApprovedTitle(ctx, campaign.ID); err != nil {
		log.Warn("approved title lookup failed", "error", err)
		titleItem = nil
	}

	item := &models.ContentItem{CampaignID: campaign.ID, ScheduledFor: now}
	if titleItem != nil {
		item.TitleItemID = &titleItem.ID
	}
	if item, err = s.store.CreateContentItem(ctx, item); err != nil {
		log.Error("create content item failed", "error", err)
		s.recordEvent(ctx, campaign.ID, runID, models.EventLevelError, "could not create content item: "+err.Error())
		return outcomeFailed, err
	}

	// Claim before any external call. The start timestamp is what makes
	// the stuck sweep safe after a crash mid-publish.
	itemClaimed, err := s.store.ClaimContentItem(ctx, item.ID, time.Now().UTC())
	if err != nil {
		log.Error("claim content item failed", "error", err)
		return outcomeFailed, err
	}
	if !itemClaimed {
		err = domain.NewConflictError("content item already claimed")
		log.Error("claim content item failed", "error", err)
		return outcomeFailed, err
	}

	return s.runPipeline(ctx, log, campaign, user, item, titleItem, runID)
}

// runPipeline takes a claimed item through generation, humanization, image
// rendering and publishing.
func (s *Scheduler) runPipeline(
	ctx context.Context,
	log logger.Logger,
	campaign *models.Campaign,
	user *models.User,
	item *models.ContentItem,
	titleItem *models.TitleItem,
	runID string,
) (string, error) {
	site, password, err := s.resolveSite(ctx, campaign)
	if err != nil {
		return s.failItem(ctx, log, campaign, item, runID, stageSite, err)
	}

	opts := generation.Options{}
	if titleItem != nil {
		opts.Title = titleItem.Title
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	genStarted := time.Now()
	generated, err := s.generator.GenerateContent(genCtx, campaign, opts)
	cancel()
	s.metrics.RecordProviderCall("generator", "content", time.Since(genStarted))
	if err != nil {
		return s.failItem(ctx, log, campaign, item, runID, stageGeneration, err)
	}

	body := s.humanizer.Humanize(generated.Body, campaign.Imperfections)

	// Image generation is best-effort: a failure costs the featured image,
	// never the post.
	imageURL := ""
	if generated.ImagePrompt != "" {
		imgCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		imgStarted := time.Now()
		imageURL, err = s.generator.GenerateImage(imgCtx, generated.ImagePrompt)
		cancel()
		s.metrics.RecordProviderCall("generator", "image", time.Since(imgStarted))
		if err != nil {
			log.Warn("image generation failed, continuing without image", "error", err)
			s.recordEvent(ctx, campaign.ID, runID, models.EventLevelWarning, "featured image generation failed: "+err.Error())
			imageURL = ""
		}
	}

	// Persist the generated material before publishing so a failed publish
	// still leaves the content inspectable.
	if err := s.store.SetContentGenerated(ctx, item.ID, generated.Title, body, generated.Keywords, imageURL); err != nil {
		log.Error("persist generated content failed", "error", err)
	}

	target := wordpress.Target{BaseURL: site.URL, Username: site.Username, Password: password}
	post := &wordpress.Post{
		Title:    generated.Title,
		Body:     body,
		Keywords: generated.Keywords,
		ImageURL: imageURL,
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	pubStarted := time.Now()
	published, err := s.publisher.Publish(pubCtx, target, post)
	cancel()
	s.metrics.RecordProviderCall("publisher", "publish", time.Since(pubStarted))
	if err != nil {
		return s.failItem(ctx, log, campaign, item, runID, stagePublish, err)
	}
	if published.ImageWarning != "" {
		s.recordEvent(ctx, campaign.ID, runID, models.EventLevelWarning, "featured image upload failed: "+published.ImageWarning)
	}

	now := time.Now().UTC()
	if err := s.store.CompleteContentItem(ctx, item.ID, campaign.ID, user.ID, published.PostID, published.PostURL, now); err != nil {
		log.Error("complete content item failed", "error", err)
		return outcomeFailed, err
	}
	s.metrics.RecordPostPublished(user.Tier)
	if titleItem != nil {
		if err := s.store.MarkTitleUsed(ctx, titleItem.ID, now); err != nil {
			log.Warn("mark title used failed", "title_item_id", titleItem.ID, "error", err)
		}
	}

	s.recordEvent(ctx, campaign.ID, runID, models.EventLevelInfo,
		fmt.Sprintf("published %q to %s", generated.Title, published.PostURL))
	log.Info("campaign cycle published", "post_url", published.PostURL)
	return outcomePublished, nil
}

// failItem marks the item failed and records the error event. The deferred
// reschedule still advances next-run, so a failing campaign never
// tight-loops on the same error.
func (s *Scheduler) failItem(
	ctx context.Context,
	log logger.Logger,
	campaign *models.Campaign,
	item *models.ContentItem,
	runID, stage string,
	cause error,
) (string, error) {
	if err := s.store.FailContentItem(ctx, item.ID, cause.Error(), time.Now().UTC()); err != nil {
		log.Error("mark content item failed errored", "error", err)
	}
	s.metrics.RecordPublishFailure(stage)
	s.recordEvent(ctx, campaign.ID, runID, models.EventLevelError, cause.Error())
	log.Error("campaign cycle failed", "stage", stage, "error", cause)
	return outcomeFailed, cause
}

// resolveSite loads the campaign's publish target and decrypts its
// credentials for this call only. The plaintext never touches a log or a
// store write.
func (s *Scheduler) resolveSite(ctx context.Context, campaign *models.Campaign) (*models.Site, string, error) {
	if campaign.SiteID == nil {
		return nil, "", domain.NewSiteNotConfiguredError(0)
	}
	site, err := s.store.GetSite(ctx, *campaign.SiteID)
	if err != nil {
		return nil, "", domain.NewSiteNotConfiguredError(*campaign.SiteID)
	}
	password, err := s.cipher.Decrypt(site.AppPassword)
	if err != nil {
		return nil, "", fmt.Errorf("decrypt site credentials: %w", err)
	}
	return site, password, nil
}

func (s *Scheduler) recordEvent(ctx context.Context, campaignID int64, runID, level, message string) {
	event := &models.CampaignEvent{
		CampaignID: campaignID,
		RunID:      runID,
		Level:      level,
		Message:    message,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		s.logger.Error("record campaign event failed", "campaign_id", campaignID, "error", err)
	}
}
