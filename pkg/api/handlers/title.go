package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/generation"
	"github.com/fiddyhq/autopublisher/pkg/metrics"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// titleGenerationTimeout bounds the provider call for a title batch.
const titleGenerationTimeout = 60 * time.Second

// TitleHandler handles the title approval queue: batch generation, listing
// and review. Only approved titles are consumed by the publishing pipeline.
type TitleHandler struct {
	store     *store.Store
	generator *generation.Client
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewTitleHandler creates a new title queue handler
func NewTitleHandler(st *store.Store, gen *generation.Client, m *metrics.Metrics) *TitleHandler {
	return &TitleHandler{
		store:     st,
		generator: gen,
		metrics:   m,
		validator: validator.New(),
	}
}

// Generate handles POST /api/v1/campaigns/:id/titles/generate. The provider
// returns a batch of candidates which land in the queue as pending.
func (h *TitleHandler) Generate(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid campaign ID")
	}

	var req models.GenerateTitlesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	if !h.generator.Configured() {
		return errors.DomainError(c, domain.NewProviderNotConfiguredError("generation"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), titleGenerationTimeout)
	defer cancel()

	campaign, err := h.getOwnedCampaign(ctx, userID, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	titles, err := h.generator.GenerateTitles(ctx, campaign, req.Count)
	if err != nil {
		return errors.DomainError(c, err)
	}

	items, err := h.store.CreateTitleItems(ctx, campaign.ID, titles)
	if err != nil {
		return errors.DomainError(c, err)
	}
	h.metrics.RecordTitlesGenerated(len(items))

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"titles": items,
		"count":  len(items),
	})
}

// List handles GET /api/v1/campaigns/:id/titles with an optional ?status=
// filter.
func (h *TitleHandler) List(c echo.Context) error {
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
	case "", models.TitleStatusPending, models.TitleStatusApproved, models.TitleStatusRejected:
	default:
		return errors.BadRequestError(c, "Invalid status filter")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.getOwnedCampaign(ctx, userID, id); err != nil {
		return errors.DomainError(c, err)
	}

	items, err := h.store.ListTitleItems(ctx, id, status)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"titles": items,
		"count":  len(items),
	})
}

// Review handles POST /api/v1/titles/:id/review, approving or rejecting a
// queued title. Titles already consumed by the pipeline cannot be reviewed.
func (h *TitleHandler) Review(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid title ID")
	}

	var req models.ReviewTitleRequest
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

	item, err := h.store.GetTitleItem(ctx, id)
	if err != nil {
		return errors.DomainError(c, err)
	}
	if _, err := h.getOwnedCampaign(ctx, userID, item.CampaignID); err != nil {
		return errors.DomainError(c, err)
	}
	if item.UsedAt != nil {
		return errors.ConflictError(c, "Title has already been used by the pipeline")
	}

	if err := h.store.SetTitleStatus(ctx, id, req.Status); err != nil {
		return errors.DomainError(c, err)
	}

	item.Status = req.Status
	if req.Status == models.TitleStatusApproved {
		now := time.Now().UTC()
		item.ApprovedAt = &now
	}

	return c.JSON(http.StatusOK, item)
}

func (h *TitleHandler) getOwnedCampaign(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	campaign, err := h.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.UserID != userID {
		return nil, domain.NewNotFoundError("campaign")
	}
	return campaign, nil
}
