package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/fiddyhq/autopublisher/pkg/database"
	"github.com/fiddyhq/autopublisher/pkg/models"
	"github.com/fiddyhq/autopublisher/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	client, err := database.NewClient(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return store.New(client)
}

func createTestUser(t *testing.T, st *store.Store, email, tier string) *models.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		Tier:         tier,
	})
	require.NoError(t, err)
	return user
}

func createTestSite(t *testing.T, st *store.Store, userID int64) *models.Site {
	t.Helper()

	site, err := st.CreateSite(context.Background(), &models.Site{
		UserID:      userID,
		Name:        "Test Blog",
		URL:         "https://blog.example.com",
		Username:    "publisher",
		AppPassword: "encrypted-password",
		Active:      true,
	})
	require.NoError(t, err)
	return site
}

func createTestCampaign(t *testing.T, st *store.Store, userID int64, siteID *int64) *models.Campaign {
	t.Helper()

	campaign, err := st.CreateCampaign(context.Background(), &models.Campaign{
		UserID:        userID,
		SiteID:        siteID,
		Name:          "Coffee Campaign",
		Topic:         "specialty coffee brewing",
		Tone:          models.ToneConversational,
		WritingStyle:  models.StyleProblemAgitateSolution,
		IntervalHours: 24,
	})
	require.NoError(t, err)
	return campaign
}

// newAuthedRequest builds an echo context carrying the given user id, the way
// the JWT middleware would after validating a token.
func newAuthedRequest(method, path string, body interface{}, userID int64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("user_tier", models.TierTrial)
	return c, rec
}

// setParam sets a path parameter on a context built by newAuthedRequest.
func setParam(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status: %s", rec.Body.String())
}
