package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// EventHandler exposes the per-campaign event log the scheduler writes
// during processing runs.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates a new event handler
func NewEventHandler(st *store.Store) *EventHandler {
	return &EventHandler{store: st}
}

// List handles GET /api/v1/campaigns/:id/events, newest first.
func (h *EventHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid campaign ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	campaign, err := h.store.GetCampaign(ctx, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	if campaign.UserID != userID {
		return errors.DomainError(c, domain.NewNotFoundError("campaign"))
	}

	events, err := h.store.ListEvents(ctx, id, queryLimit(c, defaultListLimit))
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
