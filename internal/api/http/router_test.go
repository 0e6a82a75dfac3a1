package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/event-gallery/internal/api/http/handlers"
	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/config"
	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/observability"
	"github.com/spec-kit/event-gallery/internal/repository"
	"github.com/spec-kit/event-gallery/internal/service"
	"github.com/spec-kit/event-gallery/internal/storage"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repos := repository.NewMemoryRepositories()
	tokens := auth.NewTokenManager("router-test-secret", 15*time.Minute, 24*time.Hour)
	uploadDir := t.TempDir()
	store, err := storage.NewLocal(uploadDir, "/uploads")
	require.NoError(t, err)
	metrics := observability.NewMetrics()

	galleryCfg := config.GalleryConfig{MaxUploadBytes: 1 << 20, ThumbnailSize: 32, DefaultPageLimit: 20, MaxPageLimit: 100}
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		UserRepo: repos.Users,
		Tokens:   tokens,
	})
	eventService := service.NewEventService(service.EventDependencies{
		EventRepo:    repos.Events,
		AlbumRepo:    repos.Albums,
		MediaRepo:    repos.Media,
		Store:        store,
		ShareBaseURL: "https://gallery.test",
	})
	galleryService := service.NewGalleryService(galleryCfg, service.GalleryDependencies{
		EventRepo:    repos.Events,
		AlbumRepo:    repos.Albums,
		MediaRepo:    repos.Media,
		Store:        store,
		ShareBaseURL: "https://gallery.test",
	})

	app := NewApp(AppConfig{Name: "test", MaxUploadBytes: galleryCfg.MaxUploadBytes})
	RegisterMiddlewares(app, MiddlewareConfig{Metrics: metrics, RequestTimeout: 5 * time.Second, UploadLimit: galleryCfg.MaxUploadBytes})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "v0", nil),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Events:         handlers.NewEventsHandler(eventService),
		Albums:         handlers.NewAlbumsHandler(galleryService),
		Media:          handlers.NewMediaHandler(galleryService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, nil, metrics),
		UploadDir:      uploadDir,
		UploadPrefix:   "/uploads",
	})
	return &testServer{app: app, tokens: tokens}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    []byte
}

func (r response) data() map[string]any {
	data, _ := r.body["data"].(map[string]any)
	return data
}

func (r response) errorCode() string {
	errBody, _ := r.body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) response {
	t.Helper()

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{status: resp.StatusCode, header: resp.Header, raw: raw}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (s *testServer) signupAndLogin(t *testing.T, username string) string {
	t.Helper()

	resp := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))

	resp = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": "pw123"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	return resp.data()["access_token"].(string)
}

func TestRouter_AuthFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "alice", "email": "a@x.com", "password": "pw123"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	assert.Equal(t, "alice", resp.data()["username"])
	assert.Equal(t, "user", resp.data()["role"])
	assert.NotContains(t, string(resp.raw), "password")

	resp = s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "alice", "email": "other@x.com", "password": "pw123"})
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "ALREADY_EXISTS", resp.errorCode())

	resp = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.errorCode())

	resp = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "nobody", "password": "pw123"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.errorCode())

	resp = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "pw123"})
	require.Equal(t, http.StatusOK, resp.status)
	login := resp.data()
	assert.Equal(t, "Bearer", login["token_type"])
	access := login["access_token"].(string)
	refresh := login["refresh_token"].(string)

	resp = s.do(t, http.MethodGet, "/auth/me", access, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "alice", resp.data()["username"])
	assert.Equal(t, "a@x.com", resp.data()["email"])

	resp = s.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.do(t, http.MethodGet, "/auth/me", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status, "refresh tokens are not access tokens")

	resp = s.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEmpty(t, resp.data()["access_token"])

	resp = s.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": access})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Contains(t, string(resp.raw), "invalid token")
}

func TestRouter_PrivateEventShareScenario(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := s.signupAndLogin(t, "alice")

	resp := s.do(t, http.MethodPost, "/events", alice, map[string]any{
		"title":      "Launch party",
		"event_date": "2026-06-01T18:00:00Z",
		"visibility": "private",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	assert.NotContains(t, string(resp.raw), "share_token")

	resp = s.do(t, http.MethodGet, "/events/1", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodPost, "/events/1/qr", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.do(t, http.MethodPost, "/events/1/qr", alice, nil)
	require.Equal(t, http.StatusOK, resp.status)
	token := resp.data()["qr_token"].(string)
	assert.Equal(t, "https://gallery.test/share/events/1?token="+token, resp.data()["share_url"])

	again := s.do(t, http.MethodPost, "/events/1/qr", alice, nil)
	assert.Equal(t, token, again.data()["qr_token"], "ensure is idempotent")

	for _, path := range []string{"/events/1?token=", "/events/share/1?token=", "/share/events/1?token="} {
		resp = s.do(t, http.MethodGet, path+token, "", nil)
		assert.Equal(t, http.StatusOK, resp.status, path)
		assert.Equal(t, "Launch party", resp.data()["title"])
	}

	resp = s.do(t, http.MethodGet, "/events/share/1?token=wrong", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodPost, "/events/1/qr/regenerate", alice, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEqual(t, token, resp.data()["qr_token"])

	resp = s.do(t, http.MethodGet, "/events/1?token="+token, "", nil)
	assert.Equal(t, http.StatusForbidden, resp.status, "the old token stops working")

	resp = s.do(t, http.MethodGet, "/events/99", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = s.do(t, http.MethodGet, "/events/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestRouter_EventOwnership(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := s.signupAndLogin(t, "alice")
	bob := s.signupAndLogin(t, "bob")

	resp := s.do(t, http.MethodPost, "/events", alice, map[string]any{"title": "Picnic", "event_date": "2026-05-01T12:00:00Z", "visibility": "public"})
	require.Equal(t, http.StatusCreated, resp.status)

	resp = s.do(t, http.MethodGet, "/events/1", "", nil)
	assert.Equal(t, http.StatusOK, resp.status, "public events are readable by guests")

	resp = s.do(t, http.MethodPatch, "/events/1", bob, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodPatch, "/events/1", alice, map[string]any{"title": "Picnic 2"})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Picnic 2", resp.data()["title"])

	resp = s.do(t, http.MethodPost, "/events", alice, map[string]any{"title": "", "event_date": "2026-05-01T12:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())

	resp = s.do(t, http.MethodGet, "/events?from=2026-01-01", bob, nil)
	require.Equal(t, http.StatusOK, resp.status)
	items, _ := resp.body["data"].([]any)
	assert.Len(t, items, 1)

	resp = s.do(t, http.MethodGet, "/events?from=yesterday", bob, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.do(t, http.MethodDelete, "/events/1", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodDelete, "/events/1", alice, nil)
	assert.Equal(t, http.StatusNoContent, resp.status)
}

func uploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestRouter_GalleryFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := s.signupAndLogin(t, "alice")

	resp := s.do(t, http.MethodPost, "/events", alice, map[string]any{"title": "Wedding", "event_date": "2026-08-01T15:00:00Z"})
	require.Equal(t, http.StatusCreated, resp.status)

	resp = s.do(t, http.MethodPost, "/albums", alice, map[string]any{"event_id": 1, "name": "Ceremony"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	assert.Equal(t, "private", resp.data()["visibility"])

	resp = s.do(t, http.MethodPost, "/albums", alice, map[string]any{"event_id": 42, "name": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, resp.status)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 64, 48))))

	resp = s.send(t, uploadRequest(t, "/albums/1/media/upload", "first.png", img.Bytes()), alice)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	fileURL := resp.data()["file_url"].(string)
	assert.True(t, strings.HasPrefix(fileURL, "/uploads/"))
	assert.NotNil(t, resp.data()["thumbnail_url"])

	served := s.send(t, httptest.NewRequest(http.MethodGet, fileURL, nil), "")
	assert.Equal(t, http.StatusOK, served.status)
	assert.Equal(t, img.Bytes(), served.raw)

	resp = s.send(t, uploadRequest(t, "/albums/1/media/upload", "notes.txt", []byte("hello there")), alice)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.send(t, uploadRequest(t, "/albums/1/media/upload", "huge.png", bytes.Repeat([]byte{0x89}, (1<<20)+10)), alice)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.status)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", resp.errorCode())

	resp = s.do(t, http.MethodPost, "/albums/1/media", alice, map[string]string{"file_url": "https://cdn.example.com/clip.mp4", "media_type": "video"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))

	resp = s.do(t, http.MethodGet, "/albums/1/media?page=1&limit=1", alice, nil)
	require.Equal(t, http.StatusOK, resp.status)
	page := resp.data()
	assert.EqualValues(t, 2, page["total"])
	assert.Len(t, page["items"], 1)

	resp = s.do(t, http.MethodGet, "/albums/1/media?page=5", alice, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, resp.data()["items"])

	resp = s.do(t, http.MethodGet, "/albums/1/media?limit=500", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.do(t, http.MethodGet, "/albums/1/media", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodPost, "/albums/1/qr", alice, nil)
	require.Equal(t, http.StatusOK, resp.status)
	token := resp.data()["qr_token"].(string)
	assert.Equal(t, "https://gallery.test/share/albums/1?token="+token, resp.data()["share_url"])

	resp = s.do(t, http.MethodGet, "/albums/1/media?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	resp = s.do(t, http.MethodGet, "/media/1?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	resp = s.do(t, http.MethodGet, "/albums/share/1?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = s.do(t, http.MethodGet, "/events/1/albums", alice, nil)
	require.Equal(t, http.StatusOK, resp.status)
	albums, _ := resp.body["data"].([]any)
	assert.Len(t, albums, 1)

	resp = s.do(t, http.MethodDelete, "/media/1", alice, nil)
	assert.Equal(t, http.StatusNoContent, resp.status)
	served = s.send(t, httptest.NewRequest(http.MethodGet, fileURL, nil), "")
	assert.Equal(t, http.StatusNotFound, served.status)

	resp = s.do(t, http.MethodDelete, "/albums/1", alice, nil)
	assert.Equal(t, http.StatusNoContent, resp.status)
	resp = s.do(t, http.MethodGet, "/albums/1", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "alive", resp.body["status"])

	resp = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)

	user := s.signupAndLogin(t, "carol")
	resp = s.do(t, http.MethodGet, "/metrics", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	admin, err := s.tokens.IssueAccess(domain.Identity{SubjectID: 99, Username: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	resp = s.do(t, http.MethodGet, "/metrics", admin.Token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.data(), "requests")

	resp = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())
}
