package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/config"
	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/repository"
	"github.com/spec-kit/event-gallery/internal/storage"
)

// GalleryService coordinates albums and media.
type GalleryService struct {
	events       repository.EventRepository
	albums       repository.AlbumRepository
	media        repository.MediaRepository
	store        storage.Store
	files        mediaFiles
	dispatcher   bus.Dispatcher
	logger       *zap.Logger
	cfg          config.GalleryConfig
	shareBaseURL string
	newToken     func() (string, error)
}

// GalleryDependencies bundles collaborators for the gallery service.
type GalleryDependencies struct {
	EventRepo    repository.EventRepository
	AlbumRepo    repository.AlbumRepository
	MediaRepo    repository.MediaRepository
	Store        storage.Store
	Dispatcher   bus.Dispatcher
	Logger       *zap.Logger
	ShareBaseURL string
	TokenSource  func() (string, error)
}

// AlbumCreateInput describes album creation payload.
type AlbumCreateInput struct {
	EventID     int64
	Name        string
	Description *string
	Visibility  string
}

// AlbumUpdateInput is a partial update; nil fields are left untouched.
type AlbumUpdateInput struct {
	Name        *string
	Description *string
	Visibility  *string
}

// MediaCreateInput registers media hosted elsewhere.
type MediaCreateInput struct {
	FileURL   string
	MediaType string
}

// UploadInput is a file received from a client. The content type is sniffed from
// the bytes; ContentType is what the client declared.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaPage is one page of an album's media, newest first.
type MediaPage struct {
	Items []*domain.Media
	Page  int
	Limit int
	Total int
}

// NewGalleryService constructs the service.
func NewGalleryService(cfg config.GalleryConfig, deps GalleryDependencies) *GalleryService {
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = bus.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GalleryService{
		events:       deps.EventRepo,
		albums:       deps.AlbumRepo,
		media:        deps.MediaRepo,
		store:        deps.Store,
		files:        mediaFiles{store: deps.Store, logger: logger},
		dispatcher:   dispatcher,
		logger:       logger,
		cfg:          cfg,
		shareBaseURL: strings.TrimRight(deps.ShareBaseURL, "/"),
		newToken:     defaultTokenSource(deps.TokenSource),
	}
}

// CreateAlbum adds an album to an event the caller may update.
func (s *GalleryService) CreateAlbum(ctx context.Context, principal *auth.Principal, input AlbumCreateInput) (*domain.Album, error) {
	event, err := s.events.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, err
	}
	if err := auth.Decide(principal, event.Ownership(), auth.OpUpdate, "").Err(); err != nil {
		return nil, err
	}

	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	visibility, err := domain.ParseVisibility(input.Visibility)
	if err != nil {
		return nil, err
	}

	album := &domain.Album{
		EventID:     event.ID,
		Name:        name,
		Description: trimOptional(input.Description),
		OwnerID:     principal.SubjectID(),
		Visibility:  visibility,
	}
	if err := s.albums.Create(ctx, album); err != nil {
		return nil, err
	}

	s.publish(ctx, bus.NewMessage(bus.MessageAlbumCreated, bus.ResourceAlbum, album.ID, principal.SubjectID(),
		bus.AlbumCreatedPayload{EventID: event.ID, Name: album.Name}))
	return album, nil
}

// GetAlbum loads an album for principal, which may be nil for guests.
func (s *GalleryService) GetAlbum(ctx context.Context, principal *auth.Principal, id int64, shareToken string) (*domain.Album, error) {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readError(auth.Decide(principal, album.Ownership(), auth.OpRead, shareToken)); err != nil {
		return nil, err
	}
	return album, nil
}

// ListAlbumsByEvent returns the visible albums of an event the caller may read.
func (s *GalleryService) ListAlbumsByEvent(ctx context.Context, principal *auth.Principal, eventID int64, shareToken string) ([]*domain.Album, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := readError(auth.Decide(principal, event.Ownership(), auth.OpRead, shareToken)); err != nil {
		return nil, err
	}
	albums, err := s.albums.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return auth.Filter(principal, albums), nil
}

// UpdateAlbum applies a partial update.
func (s *GalleryService) UpdateAlbum(ctx context.Context, principal *auth.Principal, id int64, input AlbumUpdateInput) (*domain.Album, error) {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Decide(principal, album.Ownership(), auth.OpUpdate, "").Err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		album.Name = name
	}
	if input.Description != nil {
		album.Description = trimOptional(input.Description)
	}
	if input.Visibility != nil {
		visibility, err := domain.ParseVisibility(*input.Visibility)
		if err != nil {
			return nil, err
		}
		album.Visibility = visibility
	}

	if err := s.albums.Update(ctx, album); err != nil {
		return nil, err
	}
	return album, nil
}

// DeleteAlbum removes an album and its media. Stored files are removed best-effort.
func (s *GalleryService) DeleteAlbum(ctx context.Context, principal *auth.Principal, id int64) error {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Decide(principal, album.Ownership(), auth.OpDelete, "").Err(); err != nil {
		return err
	}

	items, err := s.media.ListByAlbum(ctx, id, 0, 0)
	if err != nil {
		return err
	}
	if err := s.albums.Delete(ctx, id); err != nil {
		return err
	}
	s.files.remove(ctx, items...)

	s.publish(ctx, bus.NewMessage(bus.MessageAlbumDeleted, bus.ResourceAlbum, id, principal.SubjectID(),
		bus.AlbumDeletedPayload{EventID: album.EventID, MediaRemoved: len(items)}))
	return nil
}

// EnsureAlbumShare returns the album's share link, creating the token on first use.
func (s *GalleryService) EnsureAlbumShare(ctx context.Context, principal *auth.Principal, id int64) (ShareLink, error) {
	return s.share(ctx, principal, id, false)
}

// RegenerateAlbumShare replaces the album's share token.
func (s *GalleryService) RegenerateAlbumShare(ctx context.Context, principal *auth.Principal, id int64) (ShareLink, error) {
	return s.share(ctx, principal, id, true)
}

func (s *GalleryService) share(ctx context.Context, principal *auth.Principal, id int64, replace bool) (ShareLink, error) {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return ShareLink{}, err
	}
	if err := auth.Decide(principal, album.Ownership(), auth.OpManageShare, "").Err(); err != nil {
		return ShareLink{}, err
	}

	if !replace && album.ShareToken != nil {
		return s.link(id, *album.ShareToken), nil
	}

	token, created, err := storeShareToken(ctx, s.newToken, func(ctx context.Context, candidate string) (string, error) {
		return s.albums.SetShareToken(ctx, id, candidate, replace)
	})
	if err != nil {
		return ShareLink{}, err
	}
	if created {
		s.publish(ctx, bus.NewMessage(bus.MessageShareIssued, bus.ResourceAlbum, id, principal.SubjectID(),
			bus.ShareIssuedPayload{Regenerated: replace}))
	}
	return s.link(id, token), nil
}

func (s *GalleryService) link(id int64, token string) ShareLink {
	return ShareLink{ResourceID: id, Token: token, URL: shareURL(s.shareBaseURL, "albums", id, token)}
}

// AddMedia registers media that is already hosted at a URL.
func (s *GalleryService) AddMedia(ctx context.Context, principal *auth.Principal, albumID int64, input MediaCreateInput) (*domain.Media, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := auth.Decide(principal, album.Ownership(), auth.OpUpdate, "").Err(); err != nil {
		return nil, err
	}

	fileURL := strings.TrimSpace(input.FileURL)
	if !validMediaURL(fileURL) {
		return nil, validationError("file_url must be an http(s) URL or an absolute path")
	}
	// Records pointing into the store would let their owner delete someone else's upload.
	if s.store != nil && s.store.Owns(fileURL) {
		return nil, validationError("file_url must not point into upload storage; use the upload endpoint")
	}
	mediaType, err := domain.ParseMediaType(strings.ToLower(strings.TrimSpace(input.MediaType)))
	if err != nil {
		return nil, err
	}

	item := &domain.Media{
		AlbumID:   album.ID,
		OwnerID:   principal.SubjectID(),
		FileURL:   fileURL,
		MediaType: mediaType,
	}
	if err := s.media.Create(ctx, item); err != nil {
		return nil, err
	}
	s.publishUploaded(ctx, principal, item)
	return item, nil
}

// UploadMedia stores an image under a generated name and records it. A thumbnail is
// generated when the image decodes; failure to do so keeps the upload.
func (s *GalleryService) UploadMedia(ctx context.Context, principal *auth.Principal, albumID int64, input UploadInput) (*domain.Media, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := auth.Decide(principal, album.Ownership(), auth.OpUpdate, "").Err(); err != nil {
		return nil, err
	}

	if input.Size > s.cfg.MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(input.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, validationError("file is empty")
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, validationError("only image uploads are accepted")
	}
	if err := storage.CheckDimensions(data, s.cfg.MaxImagePixels); errors.Is(err, storage.ErrImageTooLarge) {
		return nil, validationError("image dimensions exceed the allowed pixel count")
	}
	if input.ContentType != "" && !strings.EqualFold(input.ContentType, contentType) {
		s.logger.Debug("declared content type differs from sniffed",
			zap.String("declared", input.ContentType),
			zap.String("sniffed", contentType))
	}

	key := storage.NewKey(input.Filename)
	fileURL, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	item := &domain.Media{
		AlbumID:      album.ID,
		OwnerID:      principal.SubjectID(),
		FileURL:      fileURL,
		ThumbnailURL: s.storeThumbnail(ctx, key, data),
		MediaType:    domain.MediaTypeImage,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
	}
	if err := s.media.Create(ctx, item); err != nil {
		s.files.remove(ctx, item)
		return nil, err
	}
	s.publishUploaded(ctx, principal, item)
	return item, nil
}

func (s *GalleryService) storeThumbnail(ctx context.Context, key string, data []byte) *string {
	thumb, err := storage.Thumbnail(data, s.cfg.ThumbnailSize, s.cfg.MaxImagePixels)
	if err != nil {
		s.logger.Warn("thumbnail generation failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	thumbURL, err := s.store.Put(ctx, storage.ThumbnailKey(key), bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg")
	if err != nil {
		s.logger.Warn("thumbnail store failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &thumbURL
}

// ListMedia pages through an album's media. page starts at 1 and a zero limit
// selects the configured default. A page past the end is empty, not an error.
func (s *GalleryService) ListMedia(ctx context.Context, principal *auth.Principal, albumID int64, page, limit int, shareToken string) (MediaPage, error) {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return MediaPage{}, validationError("page must be at least 1")
	}
	if limit == 0 {
		limit = s.cfg.DefaultPageLimit
	}
	if limit < 1 || limit > s.cfg.MaxPageLimit {
		return MediaPage{}, validationError("limit is out of range")
	}

	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return MediaPage{}, err
	}
	if err := readError(auth.Decide(principal, album.Ownership(), auth.OpRead, shareToken)); err != nil {
		return MediaPage{}, err
	}

	total, err := s.media.CountByAlbum(ctx, albumID)
	if err != nil {
		return MediaPage{}, err
	}
	items, err := s.media.ListByAlbum(ctx, albumID, limit, (page-1)*limit)
	if err != nil {
		return MediaPage{}, err
	}
	if items == nil {
		items = []*domain.Media{}
	}
	return MediaPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

// GetMedia loads a media item; visibility and share token come from its album.
func (s *GalleryService) GetMedia(ctx context.Context, principal *auth.Principal, id int64, shareToken string) (*domain.Media, error) {
	item, album, err := s.loadMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readError(auth.Decide(principal, item.EnvelopeWithin(album), auth.OpRead, shareToken)); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMedia removes a media item. Its uploader, the album owner or an admin may do so.
func (s *GalleryService) DeleteMedia(ctx context.Context, principal *auth.Principal, id int64) error {
	item, album, err := s.loadMedia(ctx, id)
	if err != nil {
		return err
	}
	decision := auth.Decide(principal, item.EnvelopeWithin(album), auth.OpDelete, "")
	if !decision.Allowed {
		decision = auth.Decide(principal, album.Ownership(), auth.OpDelete, "")
	}
	if err := decision.Err(); err != nil {
		return err
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	s.files.remove(ctx, item)

	s.publish(ctx, bus.NewMessage(bus.MessageMediaDeleted, bus.ResourceMedia, id, principal.SubjectID(),
		bus.MediaDeletedPayload{AlbumID: item.AlbumID}))
	return nil
}

func (s *GalleryService) loadMedia(ctx context.Context, id int64) (*domain.Media, *domain.Album, error) {
	item, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	album, err := s.albums.GetByID(ctx, item.AlbumID)
	if err != nil {
		return nil, nil, err
	}
	return item, album, nil
}

func (s *GalleryService) publishUploaded(ctx context.Context, principal *auth.Principal, item *domain.Media) {
	s.publish(ctx, bus.NewMessage(bus.MessageMediaUploaded, bus.ResourceMedia, item.ID, principal.SubjectID(),
		bus.MediaUploadedPayload{
			AlbumID:      item.AlbumID,
			MediaType:    item.MediaType,
			ContentType:  item.ContentType,
			SizeBytes:    item.SizeBytes,
			HasThumbnail: item.ThumbnailURL != nil,
		}))
}

func (s *GalleryService) publish(ctx context.Context, msg bus.Message) {
	_ = s.dispatcher.Publish(ctx, msg)
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError("name is required")
	}
	if len([]rune(name)) > maxTitleLength {
		return "", validationError("name must be at most 200 characters")
	}
	return name, nil
}

func validMediaURL(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
