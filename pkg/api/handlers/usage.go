package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/cache"
	"github.com/fiddyhq/autopublisher/pkg/metrics"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/quota"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// usageCacheTTL is short because publish counters move with every scheduler
// pass.
const usageCacheTTL = 30 * time.Second

// UsageHandler reports the caller's quota position. Responses are cached
// briefly in redis when a cache client is wired.
type UsageHandler struct {
	store       *store.Store
	cache       *cache.Client
	metrics     *metrics.Metrics
	quotaPeriod time.Duration
}

// NewUsageHandler creates a new usage handler. cache may be nil to disable
// caching; quotaPeriod must match the scheduler's period-reset window.
func NewUsageHandler(st *store.Store, cc *cache.Client, m *metrics.Metrics, quotaPeriod time.Duration) *UsageHandler {
	if quotaPeriod <= 0 {
		quotaPeriod = 30 * 24 * time.Hour
	}
	return &UsageHandler{
		store:       st,
		cache:       cc,
		metrics:     m,
		quotaPeriod: quotaPeriod,
	}
}

// Get handles GET /api/v1/usage
func (h *UsageHandler) Get(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf("usage:user:%d", userID)
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			var resp models.UsageResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				h.metrics.RecordCacheHit("usage")
				return c.JSON(http.StatusOK, resp)
			}
		}
		h.metrics.RecordCacheMiss("usage")
	}

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		return errors.DomainError(c, err)
	}
	active, err := h.store.CountActiveCampaigns(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	limit, limited := quota.LimitForTier(user.Tier)
	remaining, _ := quota.Remaining(user)

	resp := models.UsageResponse{
		Tier:                 user.Tier,
		PostsPublishedTotal:  user.PostsPublishedTotal,
		PostsPublishedPeriod: user.PostsPublishedPeriod,
		Limit:                limit,
		Unlimited:            !limited,
		Remaining:            remaining,
		PeriodStartedAt:      user.PeriodStartedAt.UTC().Format(time.RFC3339),
		PeriodResetsAt:       user.PeriodStartedAt.Add(h.quotaPeriod).UTC().Format(time.RFC3339),
		ActiveCampaigns:      active,
		MaxActiveCampaigns:   user.MaxActiveCampaigns,
	}

	if h.cache != nil {
		if payload, err := json.Marshal(resp); err == nil {
			// Best effort; a cache write failure never fails the request.
			_ = h.cache.Set(ctx, cacheKey, payload, usageCacheTTL)
		}
	}

	return c.JSON(http.StatusOK, resp)
}
