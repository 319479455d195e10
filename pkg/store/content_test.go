package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

func TestClaimContentItem(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierProfessional)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)
	item := createTestContentItem(t, s, campaign.ID)

	claimed, err := s.ClaimContentItem(ctx, item.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	got, err := s.GetContentItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.WithinDuration(t, now, *got.StartedAt, time.Second)

	// An item is claimed at most once per work unit.
	claimedAgain, err := s.ClaimContentItem(ctx, item.ID, now)
	require.NoError(t, err)
	assert.False(t, claimedAgain)
}

func TestCompleteContentItem(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierHobbyist)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)
	item := createTestContentItem(t, s, campaign.ID)

	claimed, err := s.ClaimContentItem(ctx, item.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, s.CompleteContentItem(ctx, item.ID, campaign.ID, user.ID, 42, "https://blog.example.com/?p=42", now))

	got, err := s.GetContentItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusCompleted, got.Status)
	assert.Equal(t, int64(42), got.RemotePostID)
	assert.Equal(t, "https://blog.example.com/?p=42", got.PostURL)
	require.NotNil(t, got.CompletedAt)

	// Counters move with the completion, in the same transaction.
	owner, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owner.PostsPublishedTotal)
	assert.Equal(t, 1, owner.PostsPublishedPeriod)

	c, err := s.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.PostsPublished)

	// Completing a terminal item is rejected and must not double-count.
	err = s.CompleteContentItem(ctx, item.ID, campaign.ID, user.ID, 42, "https://blog.example.com/?p=42", now)
	assert.True(t, domain.IsConflict(err))

	owner, err = s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owner.PostsPublishedTotal)
}

func TestFailContentItem(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierTrial)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)
	item := createTestContentItem(t, s, campaign.ID)

	claimed, err := s.ClaimContentItem(ctx, item.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, s.FailContentItem(ctx, item.ID, "provider unavailable", now))

	got, err := s.GetContentItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusFailed, got.Status)
	assert.Equal(t, "provider unavailable", got.ErrorMessage)

	// Failure never bumps counters.
	owner, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, owner.PostsPublishedTotal)

	// A failed item stays failed.
	err = s.CompleteContentItem(ctx, item.ID, campaign.ID, user.ID, 7, "https://blog.example.com/?p=7", now)
	assert.True(t, domain.IsConflict(err))
}

func TestSetContentGenerated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierTrial)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)
	item := createTestContentItem(t, s, campaign.ID)

	require.NoError(t, s.SetContentGenerated(ctx, item.ID, "How to Brew", "Body text", []string{"coffee", "brewing"}, "https://img.example.com/1.png"))

	got, err := s.GetContentItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "How to Brew", got.Title)
	assert.Equal(t, "Body text", got.Body)
	assert.Equal(t, []string{"coffee", "brewing"}, got.Keywords)
	assert.Equal(t, "https://img.example.com/1.png", got.ImageURL)
}

func TestCancelContentItem(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierTrial)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)

	pending := createTestContentItem(t, s, campaign.ID)
	cancelled, err := s.CancelContentItem(ctx, pending.ID, now)
	require.NoError(t, err)
	assert.True(t, cancelled)

	claimedItem := createTestContentItem(t, s, campaign.ID)
	ok, err := s.ClaimContentItem(ctx, claimedItem.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	cancelled, err = s.CancelContentItem(ctx, claimedItem.ID, now)
	require.NoError(t, err)
	assert.False(t, cancelled, "claimed items cannot be cancelled")
}

func TestRecoverStuckItems(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierProfessional)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)

	stuck := createTestContentItem(t, s, campaign.ID)
	ok, err := s.ClaimContentItem(ctx, stuck.ID, now.Add(-3*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	recent := createTestContentItem(t, s, campaign.ID)
	ok, err = s.ClaimContentItem(ctx, recent.ID, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	cutoff := now.Add(-2 * time.Hour)
	recovered, err := s.RecoverStuckItems(ctx, cutoff, "processing timed out after 2h", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recovered)

	got, err := s.GetContentItem(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusFailed, got.Status)
	assert.Equal(t, "processing timed out after 2h", got.ErrorMessage)

	got, err = s.GetContentItem(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusInProgress, got.Status, "recently claimed items are left alone")
}

func TestPurgeContentItems_RetentionBoundary(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierProfessional)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)

	completeAt := func(t *testing.T, completedAt time.Time) *models.ContentItem {
		t.Helper()
		item := createTestContentItem(t, s, campaign.ID)
		ok, err := s.ClaimContentItem(ctx, item.ID, completedAt.Add(-time.Minute))
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, s.CompleteContentItem(ctx, item.ID, campaign.ID, user.ID, 1, "https://blog.example.com/?p=1", completedAt))
		return item
	}

	keep := completeAt(t, now.Add(-(29*24*time.Hour + 23*time.Hour)))
	drop := completeAt(t, now.Add(-(30*24*time.Hour + time.Hour)))

	cutoff := now.AddDate(0, 0, -30)
	purged, err := s.PurgeContentItems(ctx, models.ContentStatusCompleted, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = s.GetContentItem(ctx, keep.ID)
	assert.NoError(t, err, "item inside the retention window is kept")

	_, err = s.GetContentItem(ctx, drop.ID)
	assert.True(t, domain.IsNotFound(err), "item past the retention window is deleted")
}

func TestPurgeContentItems_FailedWindow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierProfessional)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)

	failAt := func(t *testing.T, failedAt time.Time) *models.ContentItem {
		t.Helper()
		item := createTestContentItem(t, s, campaign.ID)
		ok, err := s.ClaimContentItem(ctx, item.ID, failedAt.Add(-time.Minute))
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, s.FailContentItem(ctx, item.ID, "boom", failedAt))
		return item
	}

	old := failAt(t, now.AddDate(0, 0, -8))
	recent := failAt(t, now.AddDate(0, 0, -3))

	count, err := s.CountPurgeableContent(ctx, models.ContentStatusFailed, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	purged, err := s.PurgeContentItems(ctx, models.ContentStatusFailed, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = s.GetContentItem(ctx, old.ID)
	assert.True(t, domain.IsNotFound(err))

	_, err = s.GetContentItem(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestListContentItems(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := createTestUser(t, s, "owner@example.com", models.TierProfessional)
	site := createTestSite(t, s, user.ID)
	campaign := createTestCampaign(t, s, user.ID, &site.ID, now)

	first := createTestContentItem(t, s, campaign.ID)
	second := createTestContentItem(t, s, campaign.ID)
	ok, err := s.ClaimContentItem(ctx, second.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	all, err := s.ListContentItems(ctx, campaign.ID, "", 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := s.ListContentItems(ctx, campaign.ID, models.ContentStatusPending, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	stats, err := s.ContentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[models.ContentStatusPending])
	assert.Equal(t, 1, stats[models.ContentStatusInProgress])
}
