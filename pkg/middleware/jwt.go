package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fiddyhq/autopublisher/pkg/auth"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return JWTMiddlewareWithBlacklist(secret, nil, nil)
}

// JWTMiddlewareWithBlacklist creates a JWT authentication middleware with
// revocation support. When a store is provided the account is re-checked on
// every request so tokens for removed accounts stop working immediately.
func JWTMiddlewareWithBlacklist(secret string, blacklist *auth.TokenBlacklist, st *store.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}

			return authenticate(c, next, parts[1], secret, blacklist, st)
		}
	}
}

// JWTFromQueryOrHeader accepts the token from a query parameter as well as
// the Authorization header. Download links (report exports) cannot set
// headers, so they carry the token in the URL.
func JWTFromQueryOrHeader(secret string, blacklist *auth.TokenBlacklist, st *store.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}

			if token == "" {
				token = c.QueryParam("token")
			}

			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header or token query parameter is required",
				})
			}

			return authenticate(c, next, token, secret, blacklist, st)
		}
	}
}

func authenticate(c echo.Context, next echo.HandlerFunc, token, secret string, blacklist *auth.TokenBlacklist, st *store.Store) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	claims, err := auth.ValidateJWTWithBlacklist(ctx, token, secret, blacklist)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_token",
			Message: err.Error(),
		})
	}

	if st != nil {
		if _, err := st.GetUser(ctx, claims.UserID); err != nil {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "user_not_found",
				Message: "User account not found",
			})
		}
	}

	// Store token in context for potential logout
	c.Set("token", token)

	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_tier", claims.Tier)

	return next(c)
}
