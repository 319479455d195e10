package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/auth"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

// AuthHandler handles token revocation. Token issuance happens out of band;
// the API only verifies and revokes.
type AuthHandler struct {
	blacklist *auth.TokenBlacklist
	jwtSecret string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(blacklist *auth.TokenBlacklist, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		blacklist: blacklist,
		jwtSecret: jwtSecret,
	}
}

// Logout handles POST /api/v1/auth/logout, revoking the presented token. The
// blacklist entry lives exactly as long as the token would have.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	claims, err := auth.ValidateJWT(token, h.jwtSecret)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "invalid_token",
		})
	}

	remaining := claims.RemainingValidity()
	if remaining <= 0 {
		// Expired tokens are rejected by the middleware anyway.
		return c.JSON(http.StatusOK, map[string]string{
			"message": "Successfully logged out",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.blacklist.Add(ctx, token, remaining); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "logout_error",
			Message: "Failed to revoke token",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}
