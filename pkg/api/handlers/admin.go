package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/archive"
	"github.com/fiddyhq/autopublisher/pkg/cache"
	"github.com/fiddyhq/autopublisher/pkg/metrics"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// statsCacheTTL keeps the admin dashboard from hammering the aggregate
// query.
const statsCacheTTL = 60 * time.Second

// AdminHandler handles admin-only endpoints: platform stats, tier changes and
// the cold-storage archive listing.
type AdminHandler struct {
	store     *store.Store
	cache     *cache.Client
	metrics   *metrics.Metrics
	archive   *archive.Service
	validator *validator.Validate
}

// NewAdminHandler creates a new admin handler. cache and archiveSvc may be
// nil when those subsystems are not configured.
func NewAdminHandler(st *store.Store, cc *cache.Client, m *metrics.Metrics, archiveSvc *archive.Service) *AdminHandler {
	return &AdminHandler{
		store:     st,
		cache:     cc,
		metrics:   m,
		archive:   archiveSvc,
		validator: validator.New(),
	}
}

// Stats handles GET /api/v1/admin/stats, returning content queue counts by
// status.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	const cacheKey = "stats:content"
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			var stats map[string]int
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				h.metrics.RecordCacheHit("stats")
				return c.JSON(http.StatusOK, map[string]interface{}{"content": stats})
			}
		}
		h.metrics.RecordCacheMiss("stats")
	}

	stats, err := h.store.ContentStats(ctx)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	if h.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			_ = h.cache.Set(ctx, cacheKey, payload, statsCacheTTL)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"content": stats})
}

// SetUserTierRequest changes a user's subscription tier
type SetUserTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=trial hobbyist professional"`
}

// SetUserTier handles PUT /api/v1/admin/users/:id/tier. Tier changes come in
// through support rather than self-service billing.
func (h *AdminHandler) SetUserTier(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid user ID")
	}

	var req SetUserTierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.store.SetUserTier(ctx, id, req.Tier); err != nil {
		return errors.DomainError(c, err)
	}

	// A tier change moves the user's limits immediately.
	if h.cache != nil {
		_ = h.cache.Delete(ctx, fmt.Sprintf("usage:user:%d", id))
	}

	user, err := h.store.GetUser(ctx, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

// Archives handles GET /api/v1/admin/archives, listing the cold-storage
// objects written by the retention sweep.
func (h *AdminHandler) Archives(c echo.Context) error {
	if h.archive == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "archive_not_configured",
			Message: "No archive bucket is configured for this deployment",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	archives, err := h.archive.ListArchives(ctx)
	if err != nil {
		return errors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"archives": archives,
		"count":    len(archives),
	})
}
