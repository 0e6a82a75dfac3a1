package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/observability"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

func newMiddlewareApp(t *testing.T, tm *TokenManager, metrics *observability.Metrics) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code, "message": domainErr.Message})
		},
	})
	mw := NewAuthMiddleware(tm, nil, metrics)

	whoami := func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.SendString("guest")
		}
		return c.SendString(principal.Username())
	}

	app.Get("/protected", mw.Handle, whoami)
	app.Get("/optional", mw.Optional, whoami)
	app.Get("/admin", mw.Handle, RequireRole(domain.RoleAdmin), whoami)
	return app
}

func doRequest(t *testing.T, app *fiber.App, path, authorization string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware_Handle(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(t, tm, metrics)

	access, err := tm.IssueAccess(alice)
	require.NoError(t, err)
	refresh, err := tm.IssueRefresh(alice)
	require.NoError(t, err)
	noExpiry := signRaw(t, &Claims{Username: "alice"})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid bearer", header: "Bearer " + access.Token, wantStatus: http.StatusOK, wantBody: "alice"},
		{name: "lowercase scheme", header: "bearer " + access.Token, wantStatus: http.StatusOK, wantBody: "alice"},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantBody: "missing authorization header"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantBody: "invalid authorization header"},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantBody: "invalid authorization header"},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: "invalid token"},
		{name: "refresh token", header: "Bearer " + refresh.Token, wantStatus: http.StatusUnauthorized, wantBody: "invalid token"},
		{name: "token without expiry", header: "Bearer " + noExpiry, wantStatus: http.StatusUnauthorized, wantBody: "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, "/protected", tt.header)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, tt.wantBody)
		})
	}

	failures := metrics.Snapshot().AuthFailures
	assert.Equal(t, int64(1), failures["invalid_signature"])
	assert.Equal(t, int64(1), failures["wrong_token_type"])
	assert.Equal(t, int64(1), failures["malformed_claims"])
}

func TestAuthMiddleware_HandleExpired(t *testing.T) {
	t.Parallel()

	tm, clock := newTestManager(t)
	app := newMiddlewareApp(t, tm, nil)

	access, err := tm.IssueAccess(alice)
	require.NoError(t, err)
	clock.Advance(16 * time.Minute)

	status, body := doRequest(t, app, "/protected", "Bearer "+access.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "invalid token")
	assert.NotContains(t, body, "expired")
}

func TestAuthMiddleware_Optional(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	app := newMiddlewareApp(t, tm, nil)

	access, err := tm.IssueAccess(alice)
	require.NoError(t, err)

	_, body := doRequest(t, app, "/optional", "")
	assert.Equal(t, "guest", body)

	_, body = doRequest(t, app, "/optional", "Bearer broken")
	assert.Equal(t, "guest", body)

	status, body := doRequest(t, app, "/optional", "Bearer "+access.Token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	app := newMiddlewareApp(t, tm, nil)

	user, err := tm.IssueAccess(alice)
	require.NoError(t, err)
	admin, err := tm.IssueAccess(domain.Identity{SubjectID: 1, Username: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)

	status, _ := doRequest(t, app, "/admin", "Bearer "+user.Token)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doRequest(t, app, "/admin", "Bearer "+admin.Token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "root", body)
}
