package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/repository"
	"github.com/spec-kit/event-gallery/internal/storage"
)

const maxTitleLength = 200

// EventService coordinates event workflows.
type EventService struct {
	events       repository.EventRepository
	albums       repository.AlbumRepository
	media        repository.MediaRepository
	files        mediaFiles
	dispatcher   bus.Dispatcher
	shareBaseURL string
	newToken     func() (string, error)
}

// EventDependencies bundles collaborators for the event service.
type EventDependencies struct {
	EventRepo repository.EventRepository
	// AlbumRepo, MediaRepo and Store locate and remove uploaded files when an event
	// is deleted. Without them only the rows are removed.
	AlbumRepo    repository.AlbumRepository
	MediaRepo    repository.MediaRepository
	Store        storage.Store
	Logger       *zap.Logger
	Dispatcher   bus.Dispatcher
	ShareBaseURL string
	// TokenSource overrides share token generation; nil uses auth.NewShareToken.
	TokenSource func() (string, error)
}

// EventCreateInput describes event creation payload.
type EventCreateInput struct {
	Title       string
	Description *string
	EventDate   time.Time
	Location    *string
	Visibility  string
}

// EventUpdateInput is a partial update; nil fields are left untouched.
type EventUpdateInput struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	Location    *string
	Visibility  *string
}

// EventListFilter narrows listings by event date.
type EventListFilter struct {
	From *time.Time
	To   *time.Time
}

// NewEventService constructs the service.
func NewEventService(deps EventDependencies) *EventService {
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = bus.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		events:       deps.EventRepo,
		albums:       deps.AlbumRepo,
		media:        deps.MediaRepo,
		files:        mediaFiles{store: deps.Store, logger: logger},
		dispatcher:   dispatcher,
		shareBaseURL: strings.TrimRight(deps.ShareBaseURL, "/"),
		newToken:     defaultTokenSource(deps.TokenSource),
	}
}

// CreateEvent creates an event owned by the caller.
func (s *EventService) CreateEvent(ctx context.Context, principal *auth.Principal, input EventCreateInput) (*domain.Event, error) {
	if err := auth.Decide(principal, domain.Envelope{}, auth.OpCreate, "").Err(); err != nil {
		return nil, err
	}

	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.EventDate.IsZero() {
		return nil, validationError("event_date is required")
	}
	visibility, err := domain.ParseVisibility(input.Visibility)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		Title:       title,
		Description: trimOptional(input.Description),
		EventDate:   input.EventDate.UTC(),
		Location:    trimOptional(input.Location),
		OwnerID:     principal.SubjectID(),
		Visibility:  visibility,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	s.publish(ctx, bus.NewMessage(bus.MessageEventCreated, bus.ResourceEvent, event.ID, principal.SubjectID(),
		bus.EventCreatedPayload{Title: event.Title, EventDate: event.EventDate, Visibility: event.Visibility}))
	return event, nil
}

// GetEvent loads an event for principal, which may be nil for guests. Existence is
// checked before access.
func (s *EventService) GetEvent(ctx context.Context, principal *auth.Principal, id int64, shareToken string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readError(auth.Decide(principal, event.Ownership(), auth.OpRead, shareToken)); err != nil {
		return nil, err
	}
	return event, nil
}

// ListEvents returns the events principal may see, newest event date first.
func (s *EventService) ListEvents(ctx context.Context, principal *auth.Principal, filter EventListFilter) ([]*domain.Event, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, validationError("from must not be after to")
	}
	events, err := s.events.List(ctx, repository.EventFilter{From: filter.From, To: filter.To})
	if err != nil {
		return nil, err
	}
	return auth.Filter(principal, events), nil
}

// UpdateEvent applies a partial update.
func (s *EventService) UpdateEvent(ctx context.Context, principal *auth.Principal, id int64, input EventUpdateInput) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Decide(principal, event.Ownership(), auth.OpUpdate, "").Err(); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		event.Title = title
	}
	if input.Description != nil {
		event.Description = trimOptional(input.Description)
	}
	if input.EventDate != nil {
		if input.EventDate.IsZero() {
			return nil, validationError("event_date must not be empty")
		}
		event.EventDate = input.EventDate.UTC()
	}
	if input.Location != nil {
		event.Location = trimOptional(input.Location)
	}
	if input.Visibility != nil {
		visibility, err := domain.ParseVisibility(*input.Visibility)
		if err != nil {
			return nil, err
		}
		event.Visibility = visibility
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes an event together with its albums and media records. Stored
// files of that media are removed best-effort once the rows are gone.
func (s *EventService) DeleteEvent(ctx context.Context, principal *auth.Principal, id int64) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Decide(principal, event.Ownership(), auth.OpDelete, "").Err(); err != nil {
		return err
	}

	var items []*domain.Media
	if s.albums != nil && s.media != nil {
		items, err = collectEventMedia(ctx, s.albums, s.media, id)
		if err != nil {
			return err
		}
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.files.remove(ctx, items...)
	s.publish(ctx, bus.NewMessage(bus.MessageEventDeleted, bus.ResourceEvent, id, principal.SubjectID(), nil))
	return nil
}

// EnsureEventShare returns the event's share link, creating the token on first use.
func (s *EventService) EnsureEventShare(ctx context.Context, principal *auth.Principal, id int64) (ShareLink, error) {
	return s.share(ctx, principal, id, false)
}

// RegenerateEventShare replaces the event's share token; the previous link stops working.
func (s *EventService) RegenerateEventShare(ctx context.Context, principal *auth.Principal, id int64) (ShareLink, error) {
	return s.share(ctx, principal, id, true)
}

func (s *EventService) share(ctx context.Context, principal *auth.Principal, id int64, replace bool) (ShareLink, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return ShareLink{}, err
	}
	if err := auth.Decide(principal, event.Ownership(), auth.OpManageShare, "").Err(); err != nil {
		return ShareLink{}, err
	}

	if !replace && event.ShareToken != nil {
		return s.link(id, *event.ShareToken), nil
	}

	token, created, err := storeShareToken(ctx, s.newToken, func(ctx context.Context, candidate string) (string, error) {
		return s.events.SetShareToken(ctx, id, candidate, replace)
	})
	if err != nil {
		return ShareLink{}, err
	}
	if created {
		s.publish(ctx, bus.NewMessage(bus.MessageShareIssued, bus.ResourceEvent, id, principal.SubjectID(),
			bus.ShareIssuedPayload{Regenerated: replace}))
	}
	return s.link(id, token), nil
}

func (s *EventService) link(id int64, token string) ShareLink {
	return ShareLink{ResourceID: id, Token: token, URL: shareURL(s.shareBaseURL, "events", id, token)}
}

func (s *EventService) publish(ctx context.Context, msg bus.Message) {
	_ = s.dispatcher.Publish(ctx, msg)
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", validationError("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", validationError("title must be at most 200 characters")
	}
	return title, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
