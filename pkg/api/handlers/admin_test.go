package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddyhq/autopublisher/pkg/cache"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

func TestAdminStats(t *testing.T) {
	st := newTestStore(t)
	user := createTestUser(t, st, "admin@example.com", models.TierProfessional)
	campaign := createTestCampaign(t, st, user.ID, nil)
	seedContentItem(t, st, campaign.ID, models.ContentStatusPending)
	seedContentItem(t, st, campaign.ID, models.ContentStatusFailed)
	h := NewAdminHandler(st, nil, nil, nil)

	c, rec := newAuthedRequest(http.MethodGet, "/api/v1/admin/stats", nil, user.ID)
	require.NoError(t, h.Stats(c))
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Content map[string]int `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Content[models.ContentStatusPending])
	assert.Equal(t, 1, resp.Content[models.ContentStatusFailed])
}

func TestAdminStats_Cached(t *testing.T) {
	mr := miniredis.RunT(t)
	cc, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	st := newTestStore(t)
	user := createTestUser(t, st, "admin@example.com", models.TierProfessional)
	campaign := createTestCampaign(t, st, user.ID, nil)
	seedContentItem(t, st, campaign.ID, models.ContentStatusPending)
	h := NewAdminHandler(st, cc, nil, nil)

	c, rec := newAuthedRequest(http.MethodGet, "/api/v1/admin/stats", nil, user.ID)
	require.NoError(t, h.Stats(c))
	requireStatus(t, rec, http.StatusOK)

	// New rows are invisible until the cache entry expires.
	seedContentItem(t, st, campaign.ID, models.ContentStatusPending)

	c, rec = newAuthedRequest(http.MethodGet, "/api/v1/admin/stats", nil, user.ID)
	require.NoError(t, h.Stats(c))
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Content map[string]int `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Content[models.ContentStatusPending])
}

func TestSetUserTier(t *testing.T) {
	st := newTestStore(t)
	user := createTestUser(t, st, "member@example.com", models.TierTrial)
	h := NewAdminHandler(st, nil, nil, nil)

	c, rec := newAuthedRequest(http.MethodPut, "/api/v1/admin/users/1/tier", SetUserTierRequest{Tier: models.TierHobbyist}, user.ID)
	setParam(c, "id", strconv.FormatInt(user.ID, 10))
	require.NoError(t, h.SetUserTier(c))
	requireStatus(t, rec, http.StatusOK)

	stored, err := st.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierHobbyist, stored.Tier)
}

func TestSetUserTier_InvalidTier(t *testing.T) {
	st := newTestStore(t)
	user := createTestUser(t, st, "member@example.com", models.TierTrial)
	h := NewAdminHandler(st, nil, nil, nil)

	c, rec := newAuthedRequest(http.MethodPut, "/api/v1/admin/users/1/tier", SetUserTierRequest{Tier: "enterprise"}, user.ID)
	setParam(c, "id", strconv.FormatInt(user.ID, 10))
	require.NoError(t, h.SetUserTier(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestSetUserTier_UnknownUser(t *testing.T) {
	st := newTestStore(t)
	h := NewAdminHandler(st, nil, nil, nil)

	c, rec := newAuthedRequest(http.MethodPut, "/api/v1/admin/users/999/tier", SetUserTierRequest{Tier: models.TierHobbyist}, int64(1))
	setParam(c, "id", "999")
	require.NoError(t, h.SetUserTier(c))
	requireStatus(t, rec, http.StatusNotFound)
}

func TestArchives_NotConfigured(t *testing.T) {
	st := newTestStore(t)
	h := NewAdminHandler(st, nil, nil, nil)

	c, rec := newAuthedRequest(http.MethodGet, "/api/v1/admin/archives", nil, int64(1))
	require.NoError(t, h.Archives(c))
	requireStatus(t, rec, http.StatusServiceUnavailable)
	assert.Equal(t, "archive_not_configured", decodeError(t, rec).Error)
}
