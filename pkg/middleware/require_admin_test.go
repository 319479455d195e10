package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

func TestRequireAdmin_NoAuthContext(t *testing.T) {
	st := setupTestStore(t)

	e := echo.New()
	handler := RequireAdmin(st)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestRequireAdmin_NonAdminForbidden(t *testing.T) {
	st := setupTestStore(t)
	user := createTestUser(t, st, models.TierProfessional, false)

	e := echo.New()
	handler := RequireAdmin(st)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", user.ID)

	err := handler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_permissions")
}

func TestRequireAdmin_AdminPasses(t *testing.T) {
	st := setupTestStore(t)
	admin := createTestUser(t, st, models.TierProfessional, true)

	e := echo.New()
	handler := RequireAdmin(st)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", admin.ID)

	err := handler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin_UnknownUser(t *testing.T) {
	st := setupTestStore(t)

	e := echo.New()
	handler := RequireAdmin(st)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", int64(404))

	err := handler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_not_found")
}
