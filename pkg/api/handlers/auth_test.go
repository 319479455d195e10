package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiddyhq/autopublisher/pkg/auth"
	"github.com/fiddyhq/autopublisher/pkg/cache"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

const testJWTSecret = "handler-test-jwt-secret"

func newAuthHandler(t *testing.T) (*AuthHandler, *auth.TokenBlacklist) {
	t.Helper()
	mr := miniredis.RunT(t)
	cc, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })
	blacklist := auth.NewTokenBlacklist(cc)
	return NewAuthHandler(blacklist, testJWTSecret), blacklist
}

func TestLogout_RevokesToken(t *testing.T) {
	h, blacklist := newAuthHandler(t)
	token, err := auth.GenerateJWT(1, "member@example.com", models.TierTrial, testJWTSecret, 24)
	require.NoError(t, err)

	c, rec := newAuthedRequest(http.MethodPost, "/api/v1/auth/logout", nil, int64(1))
	c.Set("token", token)
	require.NoError(t, h.Logout(c))
	requireStatus(t, rec, http.StatusOK)

	revoked, err := blacklist.IsBlacklisted(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestLogout_MissingToken(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := newAuthedRequest(http.MethodPost, "/api/v1/auth/logout", nil, int64(1))
	require.NoError(t, h.Logout(c))
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "missing_token", decodeError(t, rec).Error)
}

func TestLogout_InvalidToken(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := newAuthedRequest(http.MethodPost, "/api/v1/auth/logout", nil, int64(1))
	c.Set("token", "not-a-jwt")
	require.NoError(t, h.Logout(c))
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "invalid_token", decodeError(t, rec).Error)
}
