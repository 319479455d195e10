package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/api/errors"
	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/secrets"
	"github.com/fiddyhq/autopublisher/pkg/store"
	"github.com/fiddyhq/autopublisher/pkg/wordpress"
)

// connectionCheckTimeout bounds the WordPress credential probe on site
// creation.
const connectionCheckTimeout = 15 * time.Second

// SiteHandler handles publish-target site endpoints. Application passwords
// are encrypted before they reach the store and never returned to clients.
type SiteHandler struct {
	store     *store.Store
	cipher    *secrets.Cipher
	wordpress *wordpress.Client
	validator *validator.Validate
}

// NewSiteHandler creates a new site handler. wp may be nil, in which case
// connection checks are skipped entirely.
func NewSiteHandler(st *store.Store, cipher *secrets.Cipher, wp *wordpress.Client) *SiteHandler {
	return &SiteHandler{
		store:     st,
		cipher:    cipher,
		wordpress: wp,
		validator: validator.New(),
	}
}

// Create handles POST /api/v1/sites. Credentials are verified against the
// live site unless skip_connection_check is set.
func (h *SiteHandler) Create(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	var req models.CreateSiteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	req.URL = strings.TrimRight(req.URL, "/")

	if !req.SkipConnectionCheck && h.wordpress != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), connectionCheckTimeout)
		defer cancel()

		_, err := h.wordpress.TestConnection(ctx, wordpress.Target{
			BaseURL:  req.URL,
			Username: req.Username,
			Password: req.AppPassword,
		})
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "connection_failed",
				Message: connectionFailureMessage(err),
			})
		}
	}

	encrypted, err := h.cipher.Encrypt(req.AppPassword)
	if err != nil {
		return errors.InternalError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	site, err := h.store.CreateSite(ctx, &models.Site{
		UserID:      userID,
		Name:        req.Name,
		URL:         req.URL,
		Username:    req.Username,
		AppPassword: encrypted,
		Active:      true,
	})
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusCreated, toSiteResponse(site))
}

// List handles GET /api/v1/sites
func (h *SiteHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sites, err := h.store.ListSites(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	response := make([]models.SiteResponse, len(sites))
	for i, site := range sites {
		response[i] = toSiteResponse(site)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sites": response,
		"count": len(response),
	})
}

// SetActive handles PUT /api/v1/sites/:id/active. Deactivating a site stops
// the scheduler from picking up campaigns that publish to it.
func (h *SiteHandler) SetActive(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid site ID")
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return errors.BadRequestError(c, "Field 'active' is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	site, err := h.getOwned(ctx, userID, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	if err := h.store.SetSiteActive(ctx, id, *req.Active); err != nil {
		return errors.DomainError(c, err)
	}
	site.Active = *req.Active

	return c.JSON(http.StatusOK, toSiteResponse(site))
}

// Delete handles DELETE /api/v1/sites/:id. A site still referenced by
// campaigns cannot be deleted.
func (h *SiteHandler) Delete(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errors.UnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return errors.BadRequestError(c, "Invalid site ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.getOwned(ctx, userID, id); err != nil {
		return errors.DomainError(c, err)
	}
	if err := h.store.DeleteSite(ctx, id); err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Site deleted successfully",
	})
}

// getOwned fetches a site and hides other users' sites behind the same
// not-found as missing ones.
func (h *SiteHandler) getOwned(ctx context.Context, userID, id int64) (*models.Site, error) {
	site, err := h.store.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	if site.UserID != userID {
		return nil, domain.NewNotFoundError("site")
	}
	return site, nil
}

// toSiteResponse strips credentials from a site before it leaves the API.
func toSiteResponse(site *models.Site) models.SiteResponse {
	return models.SiteResponse{
		ID:        site.ID,
		Name:      site.Name,
		URL:       site.URL,
		Username:  site.Username,
		Active:    site.Active,
		CreatedAt: site.CreatedAt.Format(time.RFC3339),
	}
}

// connectionFailureMessage turns a connection-test error into a message safe
// to show the user.
func connectionFailureMessage(err error) string {
	switch wordpress.KindOf(err) {
	case wordpress.KindAuthenticationFailed:
		return "WordPress rejected the credentials. Check the username and application password."
	case wordpress.KindAccessDenied:
		return "The WordPress user does not have permission to publish posts."
	case wordpress.KindEndpointNotFound:
		return "Could not find the WordPress REST API at that URL. Check the site URL."
	case wordpress.KindTransientNetwork:
		return "Could not reach the site. Check the URL or try again later."
	default:
		return "Connection test failed. Check the site URL and credentials, or set skip_connection_check to connect anyway."
	}
}
