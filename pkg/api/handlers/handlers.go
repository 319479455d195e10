// Package handlers implements the HTTP endpoints: campaign management, site
// connections, the title approval queue, content history, usage reporting,
// exports and administration.
package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// List endpoints cap their page size so a large history cannot be pulled in
// one request.
const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// currentUserID returns the authenticated user's id, as set by the JWT
// middleware.
func currentUserID(c echo.Context) (int64, bool) {
	userID, ok := c.Get("user_id").(int64)
	return userID, ok
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// queryLimit parses the optional ?limit= parameter, falling back to def and
// clamping to maxListLimit.
func queryLimit(c echo.Context, def int) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
