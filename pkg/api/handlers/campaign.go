package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// CampaignHandler handles campaign endpoints
type CampaignHandler struct {
	store     *store.Store
	validator *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(st *store.Store) *CampaignHandler {
	return &CampaignHandler{
		store:     st,
		validator: validator.New(),
	}
}

// Create handles POST /api/v1/campaigns
func (h *CampaignHandler) Create(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	var req models.CreateCampaignRequest
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

	if req.SiteID != nil {
		if err := h.checkSiteOwned(ctx, userID, *req.SiteID); err != nil {
			return errors.DomainError(c, err)
		}
	}

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		return errors.DomainError(c, err)
	}
	active, err := h.store.CountActiveCampaigns(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	if active >= user.MaxActiveCampaigns {
		return c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "campaign_limit_reached",
			Message: "Maximum number of active campaigns reached. Pause or delete a campaign first.",
		})
	}

	campaign := &models.Campaign{
		UserID:        userID,
		SiteID:        req.SiteID,
		Name:          req.Name,
		Topic:         req.Topic,
		Context:       req.Context,
		Tone:          req.Tone,
		WritingStyle:  req.WritingStyle,
		Imperfections: req.Imperfections,
		ContentTypes:  req.ContentTypes,
		TemplateVars:  req.TemplateVars,
		IntervalHours: req.IntervalHours,
	}
	if campaign.Tone == "" {
		campaign.Tone = models.ToneConversational
	}
	if campaign.WritingStyle == "" {
		campaign.WritingStyle = models.StyleProblemAgitateSolution
	}

	created, err := h.store.CreateCampaign(ctx, campaign)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// List handles GET /api/v1/campaigns
func (h *CampaignHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	campaigns, err := h.store.ListCampaigns(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// Get handles GET /api/v1/campaigns/:id
func (h *CampaignHandler) Get(c echo.Context) error {
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

	campaign, err := h.getOwned(ctx, userID, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, campaign)
}

// Update handles PATCH /api/v1/campaigns/:id. Nil request fields are left
// unchanged.
func (h *CampaignHandler) Update(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid campaign ID")
	}

	var req models.UpdateCampaignRequest
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

	campaign, err := h.getOwned(ctx, userID, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	if req.SiteID != nil {
		if err := h.checkSiteOwned(ctx, userID, *req.SiteID); err != nil {
			return errors.DomainError(c, err)
		}
		campaign.SiteID = req.SiteID
	}
	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Topic != nil {
		campaign.Topic = *req.Topic
	}
	if req.Context != nil {
		campaign.Context = *req.Context
	}
	if req.Tone != nil {
		campaign.Tone = *req.Tone
	}
	if req.WritingStyle != nil {
		campaign.WritingStyle = *req.WritingStyle
	}
	if req.Imperfections != nil {
		campaign.Imperfections = *req.Imperfections
	}
	if req.ContentTypes != nil {
		campaign.ContentTypes = *req.ContentTypes
	}
	if req.TemplateVars != nil {
		campaign.TemplateVars = *req.TemplateVars
	}
	if req.IntervalHours != nil {
		campaign.IntervalHours = *req.IntervalHours
	}

	if err := h.store.UpdateCampaign(ctx, campaign); err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, campaign)
}

// Pause handles POST /api/v1/campaigns/:id/pause. Only active campaigns can
// be paused.
func (h *CampaignHandler) Pause(c echo.Context) error {
	return h.setStatus(c, models.CampaignStatusPaused, models.CampaignStatusActive)
}

// Resume handles POST /api/v1/campaigns/:id/resume. Paused and errored
// campaigns return to active; a next-run time that lapsed while paused makes
// the campaign due immediately.
func (h *CampaignHandler) Resume(c echo.Context) error {
	return h.setStatus(c, models.CampaignStatusActive, models.CampaignStatusPaused, models.CampaignStatusError)
}

func (h *CampaignHandler) setStatus(c echo.Context, target string, allowedFrom ...string) error {
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

	campaign, err := h.getOwned(ctx, userID, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	allowed := false
	for _, from := range allowedFrom {
		if campaign.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.ConflictError(c, "Campaign is "+campaign.Status+" and cannot be set to "+target)
	}

	if err := h.store.SetCampaignStatus(ctx, id, target); err != nil {
		return errors.DomainError(c, err)
	}
	campaign.Status = target

	return c.JSON(http.StatusOK, campaign)
}

// Delete handles DELETE /api/v1/campaigns/:id. Queue items and events are
// removed with the campaign.
func (h *CampaignHandler) Delete(c echo.Context) error {
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

	if _, err := h.getOwned(ctx, userID, id); err != nil {
		return errors.DomainError(c, err)
	}
	if err := h.store.DeleteCampaign(ctx, id); err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Campaign deleted successfully",
	})
}

// getOwned fetches a campaign and hides other users' campaigns behind the
// same not-found as missing ones.
func (h *CampaignHandler) getOwned(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	campaign, err := h.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.UserID != userID {
		return nil, domain.NewNotFoundError("campaign")
	}
	return campaign, nil
}

// checkSiteOwned verifies the referenced site exists and belongs to the user.
func (h *CampaignHandler) checkSiteOwned(ctx context.Context, userID, siteID int64) error {
	site, err := h.store.GetSite(ctx, siteID)
	if err != nil {
		return err
	}
	if site.UserID != userID {
		return domain.NewNotFoundError("site")
	}
	return nil
}
