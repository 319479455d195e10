package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/scheduler"
)

// triggerTimeout bounds a manual processing pass. Generous because a single
// pass may run several campaigns through generation and publishing.
const triggerTimeout = 5 * time.Minute

// SchedulerHandler exposes the scheduler's admin surface: manual triggering
// and lifecycle status.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// Trigger handles POST /api/v1/admin/scheduler/trigger. The pass runs
// synchronously and its summary is returned. The conditional campaign claim
// keeps a manual trigger racing a periodic tick from double-processing.
func (h *SchedulerHandler) Trigger(c echo.Context) error {
	if h.scheduler == nil {
		return errors.ConflictError(c, "Scheduler is not running in this process")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), triggerTimeout)
	defer cancel()

	result := h.scheduler.TriggerCampaignProcessing(ctx)
	return c.JSON(http.StatusOK, result)
}

// Status handles GET /api/v1/admin/scheduler/status
func (h *SchedulerHandler) Status(c echo.Context) error {
	if h.scheduler == nil {
		return c.JSON(http.StatusOK, scheduler.Status{Running: false})
	}
	return c.JSON(http.StatusOK, h.scheduler.Status())
}
