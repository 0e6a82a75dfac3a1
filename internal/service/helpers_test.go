package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/config"
	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/repository"
	"github.com/spec-kit/event-gallery/internal/storage"
)

type recorder struct {
	mu       sync.Mutex
	messages []bus.Message
}

func (r *recorder) handle(_ context.Context, msg bus.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recorder) types() []bus.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bus.MessageType, 0, len(r.messages))
	for _, msg := range r.messages {
		out = append(out, msg.Type)
	}
	return out
}

type fixture struct {
	repos   repository.Repositories
	tokens  *auth.TokenManager
	auth    *AuthService
	events  *EventService
	gallery *GalleryService
	store   *storage.Local
	sent    *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos := repository.NewMemoryRepositories()
	tokens := auth.NewTokenManager("service-test-secret", 15*time.Minute, 24*time.Hour)
	store, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	sent := &recorder{}
	dispatcher := bus.NewInMemoryDispatcher(nil)
	for _, msgType := range bus.AllMessageTypes {
		dispatcher.Subscribe(msgType, sent.handle)
	}

	galleryCfg := config.GalleryConfig{
		MaxUploadBytes:   1 << 20,
		MaxImagePixels:   1_000_000,
		ThumbnailSize:    64,
		DefaultPageLimit: 20,
		MaxPageLimit:     100,
	}

	return &fixture{
		repos:  repos,
		tokens: tokens,
		auth: NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, AuthDependencies{
			UserRepo:   repos.Users,
			Tokens:     tokens,
			Dispatcher: dispatcher,
		}),
		events: NewEventService(EventDependencies{
			EventRepo:    repos.Events,
			AlbumRepo:    repos.Albums,
			MediaRepo:    repos.Media,
			Store:        store,
			Dispatcher:   dispatcher,
			ShareBaseURL: "https://gallery.test/",
		}),
		gallery: NewGalleryService(galleryCfg, GalleryDependencies{
			EventRepo:    repos.Events,
			AlbumRepo:    repos.Albums,
			MediaRepo:    repos.Media,
			Store:        store,
			Dispatcher:   dispatcher,
			ShareBaseURL: "https://gallery.test",
		}),
		store: store,
		sent:  sent,
	}
}

// principal mints and verifies an access token so tests hold a real Principal.
func (f *fixture) principal(t *testing.T, id int64, username string, role domain.Role) *auth.Principal {
	t.Helper()
	issued, err := f.tokens.IssueAccess(domain.Identity{SubjectID: id, Username: username, Role: role})
	require.NoError(t, err)
	p, err := f.tokens.Verify(issued.Token)
	require.NoError(t, err)
	return p
}

func (f *fixture) createEvent(t *testing.T, owner *auth.Principal, visibility string) *domain.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), owner, EventCreateInput{
		Title:      "Launch party",
		EventDate:  time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC),
		Visibility: visibility,
	})
	require.NoError(t, err)
	return event
}

func (f *fixture) createAlbum(t *testing.T, owner *auth.Principal, eventID int64, visibility string) *domain.Album {
	t.Helper()
	album, err := f.gallery.CreateAlbum(context.Background(), owner, AlbumCreateInput{
		EventID:    eventID,
		Name:       "Photos",
		Visibility: visibility,
	})
	require.NoError(t, err)
	return album
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
