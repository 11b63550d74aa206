package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/lifecycle"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/retention"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPrivacyApp wires the privacy handler onto a bare Fiber app. Routes
// that normally sit behind JWT get a stub that injects the claims the
// middleware would have set.
func newPrivacyApp(t *testing.T) (*fiber.App, *lifecycle.Service) {
	t.Helper()
	st := store.NewMemory()
	rec := audit.NewRecorder(st)
	cons := consent.NewService(st, rec)
	ret := retention.NewService(st)
	lc := lifecycle.NewService(st, rec, ret, cons, nil)
	h := NewPrivacyHandler(lc, ret, nil)

	asUser := func(c *fiber.Ctx) error {
		uid := c.Get("X-Test-UID")
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": uid}})
		return c.Next()
	}

	app := fiber.New()
	app.Post("/api/privacy/onboard", h.Onboard)
	app.Post("/api/privacy/invites/accept", asUser, h.AcceptInvite)
	return app, lc
}

func postJSON(t *testing.T, app *fiber.App, path, uid, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-Test-UID", uid)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func TestOnboardWireContract(t *testing.T) {
	app, _ := newPrivacyApp(t)

	status, body := postJSON(t, app, "/api/privacy/onboard", "", `{"uid":"u1","email":"u1@example.com"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user created", body["message"])
	userData, ok := body["user_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", userData["uid"])

	// Repeat onboarding of the same uid reports success without creation.
	status, body = postJSON(t, app, "/api/privacy/onboard", "", `{"uid":"u1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user refreshed", body["message"])
}

func TestOnboardRequiresUIDField(t *testing.T) {
	app, _ := newPrivacyApp(t)

	status, body := postJSON(t, app, "/api/privacy/onboard", "", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "uid is required", body["message"])
}

func TestAcceptInviteBindsInviteCode(t *testing.T) {
	app, lc := newPrivacyApp(t)
	ctx := context.Background()

	for _, uid := range []string{"primary", "partner"} {
		_, err := lc.Onboard(ctx, uid, uid+"@example.com", "", privacy.RequestMeta{})
		require.NoError(t, err)
	}
	invite, err := lc.CreateInvite(ctx, "primary")
	require.NoError(t, err)

	status, body := postJSON(t, app, "/api/privacy/invites/accept", "partner",
		`{"invite_code":"`+invite.Code+`"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "primary", body["primary_user_id"])
	assert.Equal(t, "partner", body["partner_user_id"])
}
