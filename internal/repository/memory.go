package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// memoryState is the shared backing of the in-memory stores. Deletes cascade the
// way the foreign keys in the schema do.
type memoryState struct {
	mu     sync.RWMutex
	now    func() time.Time
	seq    map[string]int64
	users  map[int64]domain.User
	events map[int64]domain.Event
	albums map[int64]domain.Album
	media  map[int64]domain.Media
}

// NewMemoryRepositories returns stores kept in process memory. They back the
// service when no database is configured and stand in for Postgres in tests.
func NewMemoryRepositories() Repositories {
	state := &memoryState{
		now:    time.Now,
		seq:    make(map[string]int64),
		users:  make(map[int64]domain.User),
		events: make(map[int64]domain.Event),
		albums: make(map[int64]domain.Album),
		media:  make(map[int64]domain.Media),
	}
	return Repositories{
		Users:  &memoryUsers{state},
		Events: &memoryEvents{state},
		Albums: &memoryAlbums{state},
		Media:  &memoryMedia{state},
	}
}

// id allocates the next id of table, mirroring one BIGSERIAL sequence per table.
func (s *memoryState) id(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

type memoryUsers struct{ *memoryState }

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrConflict
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrConflict
		}
	}
	user.ID = r.id("users")
	user.CreatedAt = r.now()
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memoryUsers) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

type memoryEvents struct{ *memoryState }

func (r *memoryEvents) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.id("events")
	event.CreatedAt = r.now()
	event.ShareToken = nil
	event.UpdatedAt = nil
	r.events[event.ID] = copyEvent(*event)
	return nil
}

func (r *memoryEvents) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	event, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := copyEvent(event)
	return &found, nil
}

func (r *memoryEvents) List(_ context.Context, filter EventFilter) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Event
	for _, event := range r.events {
		if filter.From != nil && event.EventDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && event.EventDate.After(*filter.To) {
			continue
		}
		found := copyEvent(event)
		result = append(result, &found)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EventDate.Equal(result[j].EventDate) {
			return result[i].EventDate.After(result[j].EventDate)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *memoryEvents) Update(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[event.ID]
	if !ok {
		return ErrNotFound
	}
	now := r.now()
	stored.Title = event.Title
	stored.Description = cloneString(event.Description)
	stored.EventDate = event.EventDate
	stored.Location = cloneString(event.Location)
	stored.Visibility = event.Visibility
	stored.UpdatedAt = &now
	r.events[event.ID] = stored
	event.UpdatedAt = cloneTime(&now)
	return nil
}

func (r *memoryEvents) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	for albumID, album := range r.albums {
		if album.EventID == id {
			r.deleteAlbumLocked(albumID)
		}
	}
	return nil
}

func (r *memoryEvents) SetShareToken(_ context.Context, id int64, token string, replace bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return "", ErrNotFound
	}
	if event.ShareToken != nil && !replace {
		return *event.ShareToken, nil
	}
	if r.shareTokenTakenLocked(token) {
		return "", ErrConflict
	}
	event.ShareToken = &token
	r.events[id] = event
	return token, nil
}

func copyEvent(e domain.Event) domain.Event {
	e.Description = cloneString(e.Description)
	e.Location = cloneString(e.Location)
	e.ShareToken = cloneString(e.ShareToken)
	e.UpdatedAt = cloneTime(e.UpdatedAt)
	return e
}

type memoryAlbums struct{ *memoryState }

func (r *memoryAlbums) Create(_ context.Context, album *domain.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[album.EventID]; !ok {
		return ErrNotFound
	}
	album.ID = r.id("albums")
	album.CreatedAt = r.now()
	album.ShareToken = nil
	r.albums[album.ID] = copyAlbum(*album)
	return nil
}

func (r *memoryAlbums) GetByID(_ context.Context, id int64) (*domain.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	album, ok := r.albums[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := copyAlbum(album)
	return &found, nil
}

func (r *memoryAlbums) ListByEvent(_ context.Context, eventID int64) ([]*domain.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Album
	for _, album := range r.albums {
		if album.EventID == eventID {
			found := copyAlbum(album)
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *memoryAlbums) Update(_ context.Context, album *domain.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.albums[album.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = album.Name
	stored.Description = cloneString(album.Description)
	stored.Visibility = album.Visibility
	r.albums[album.ID] = stored
	return nil
}

func (r *memoryAlbums) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[id]; !ok {
		return ErrNotFound
	}
	r.deleteAlbumLocked(id)
	return nil
}

func (r *memoryAlbums) SetShareToken(_ context.Context, id int64, token string, replace bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	album, ok := r.albums[id]
	if !ok {
		return "", ErrNotFound
	}
	if album.ShareToken != nil && !replace {
		return *album.ShareToken, nil
	}
	if r.shareTokenTakenLocked(token) {
		return "", ErrConflict
	}
	album.ShareToken = &token
	r.albums[id] = album
	return token, nil
}

func copyAlbum(a domain.Album) domain.Album {
	a.Description = cloneString(a.Description)
	a.ShareToken = cloneString(a.ShareToken)
	return a
}

func (s *memoryState) deleteAlbumLocked(id int64) {
	delete(s.albums, id)
	for mediaID, media := range s.media {
		if media.AlbumID == id {
			delete(s.media, mediaID)
		}
	}
}

// shareTokenTakenLocked mirrors the unique indexes on events.share_token and albums.share_token.
func (s *memoryState) shareTokenTakenLocked(token string) bool {
	for _, event := range s.events {
		if event.ShareToken != nil && *event.ShareToken == token {
			return true
		}
	}
	for _, album := range s.albums {
		if album.ShareToken != nil && *album.ShareToken == token {
			return true
		}
	}
	return false
}

type memoryMedia struct{ *memoryState }

func (r *memoryMedia) Create(_ context.Context, media *domain.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[media.AlbumID]; !ok {
		return ErrNotFound
	}
	media.ID = r.id("media")
	media.UploadedAt = r.now()
	stored := *media
	stored.ThumbnailURL = cloneString(media.ThumbnailURL)
	r.media[media.ID] = stored
	return nil
}

func (r *memoryMedia) GetByID(_ context.Context, id int64) (*domain.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	media, ok := r.media[id]
	if !ok {
		return nil, ErrNotFound
	}
	media.ThumbnailURL = cloneString(media.ThumbnailURL)
	return &media, nil
}

func (r *memoryMedia) ListByAlbum(_ context.Context, albumID int64, limit, offset int) ([]*domain.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.Media
	for _, media := range r.media {
		if media.AlbumID == albumID {
			found := media
			found.ThumbnailURL = cloneString(media.ThumbnailURL)
			all = append(all, &found)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryMedia) CountByAlbum(_ context.Context, albumID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, media := range r.media {
		if media.AlbumID == albumID {
			total++
		}
	}
	return total, nil
}

func (r *memoryMedia) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.media[id]; !ok {
		return ErrNotFound
	}
	delete(r.media, id)
	return nil
}
