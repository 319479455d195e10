package store

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

// setupTestStore creates a store over an in-memory SQLite database
func setupTestStore(t *testing.T) *Store {
	client, err := database.NewClient(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New(client)
}

// createTestUser creates a test user and returns it
func createTestUser(t *testing.T, s *Store, email, tier string) *models.User {
	user, err := s.CreateUser(context.Background(), &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		Tier:         tier,
	})
	require.NoError(t, err)
	return user
}

// createTestSite creates an active test site owned by the user
func createTestSite(t *testing.T, s *Store, userID int64) *models.Site {
	site, err := s.CreateSite(context.Background(), &models.Site{
		UserID:      userID,
		Name:        "Test Blog",
		URL:         "https://blog.example.com",
		Username:    "admin",
		AppPassword: "encrypted-password",
		Active:      true,
	})
	require.NoError(t, err)
	return site
}

// createTestCampaign creates an active campaign due at nextRun
func createTestCampaign(t *testing.T, s *Store, userID int64, siteID *int64, nextRun time.Time) *models.Campaign {
	c, err := s.CreateCampaign(context.Background(), &models.Campaign{
		UserID:        userID,
		SiteID:        siteID,
		Name:          "Coffee Campaign",
		Topic:         "coffee brewing",
		Context:       "specialty coffee shop in Portland",
		Tone:          models.ToneConversational,
		WritingStyle:  models.StyleProblemAgitateSolution,
		Imperfections: []string{models.ImperfectionCasualLanguage},
		IntervalHours: 1.0,
		NextRunAt:     nextRun,
	})
	require.NoError(t, err)
	return c
}

// createTestContentItem creates a pending content item for a campaign
func createTestContentItem(t *testing.T, s *Store, campaignID int64) *models.ContentItem {
	item, err := s.CreateContentItem(context.Background(), &models.ContentItem{
		CampaignID: campaignID,
	})
	require.NoError(t, err)
	return item
}
