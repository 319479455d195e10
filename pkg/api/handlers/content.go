package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// ContentHandler exposes the content queue read-only, plus cancellation of
// items that have not started. Publish failures are observed by polling
// these endpoints; nothing is pushed to the user.
type ContentHandler struct {
	store *store.Store
}

// NewContentHandler creates a new content queue handler
func NewContentHandler(st *store.Store) *ContentHandler {
	return &ContentHandler{store: st}
}

// ListForCampaign handles GET /api/v1/campaigns/:id/content with optional
// ?status= and ?limit= parameters.
func (h *ContentHandler) ListForCampaign(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid campaign ID")
	}

	status := c.QueryParam("status")
	switch status {
	case "", models.ContentStatusPending, models.ContentStatusInProgress,
		models.ContentStatusCompleted, models.ContentStatusFailed, models.ContentStatusCancelled:
	default:
		return errors.BadRequestError(c, "Invalid status filter")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.checkCampaignOwned(ctx, userID, id); err != nil {
		return errors.DomainError(c, err)
	}

	items, err := h.store.ListContentItems(ctx, id, status, queryLimit(c, defaultListLimit))
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"content": items,
		"count":   len(items),
	})
}

// ListForUser handles GET /api/v1/content, the user-wide history across all
// campaigns, newest first.
func (h *ContentHandler) ListForUser(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.store.ListUserContentItems(ctx, userID, queryLimit(c, defaultListLimit))
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"content": items,
		"count":   len(items),
	})
}

// Cancel handles POST /api/v1/content/:id/cancel. Only items the pipeline
// has not claimed yet can be cancelled; anything in progress or terminal is
// reported as a conflict.
func (h *ContentHandler) Cancel(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid content item ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.store.GetContentItem(ctx, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	if err := h.checkCampaignOwned(ctx, userID, item.CampaignID); err != nil {
		return errors.DomainError(c, err)
	}

	cancelled, err := h.store.CancelContentItem(ctx, id, time.Now().UTC())
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	if !cancelled {
		return errors.ConflictError(c, "Content item is "+item.Status+" and can no longer be cancelled")
	}

	item.Status = models.ContentStatusCancelled
	return c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) checkCampaignOwned(ctx context.Context, userID, campaignID int64) error {
	campaign, err := h.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.UserID != userID {
		return domain.NewNotFoundError("campaign")
	}
	return nil
}
