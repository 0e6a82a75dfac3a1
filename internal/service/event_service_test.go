package service

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/domain"
)

func TestEventService_PrivateEventShareScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	alice := f.principal(t, 1, "alice", domain.RoleUser)

	event := f.createEvent(t, alice, "private")
	assert.Equal(t, domain.VisibilityPrivate, event.Visibility)
	assert.Equal(t, int64(1), event.OwnerID)

	_, err := f.events.GetEvent(ctx, nil, event.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden, "anonymous read of a private event")

	link, err := f.events.EnsureEventShare(ctx, alice, event.ID)
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)
	assert.Equal(t, event.ID, link.ResourceID)
	assert.Equal(t, "https://gallery.test/share/events/1?token="+link.Token, link.URL)

	again, err := f.events.EnsureEventShare(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, link.Token, again.Token, "ensure is idempotent")

	got, err := f.events.GetEvent(ctx, nil, event.ID, link.Token)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = f.events.GetEvent(ctx, nil, event.ID, "wrong")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	regenerated, err := f.events.RegenerateEventShare(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.NotEqual(t, link.Token, regenerated.Token)

	_, err = f.events.GetEvent(ctx, nil, event.ID, link.Token)
	assert.ErrorIs(t, err, domain.ErrForbidden, "old token stops working")
	_, err = f.events.GetEvent(ctx, nil, event.ID, regenerated.Token)
	assert.NoError(t, err)

	assert.Equal(t, []bus.MessageType{
		bus.MessageEventCreated,
		bus.MessageShareIssued,
		bus.MessageShareIssued,
	}, f.sent.types())
}

func TestEventService_AccessRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	alice := f.principal(t, 1, "alice", domain.RoleUser)
	bob := f.principal(t, 2, "bob", domain.RoleUser)
	admin := f.principal(t, 3, "root", domain.RoleAdmin)

	event := f.createEvent(t, alice, "private")

	_, err := f.events.GetEvent(ctx, bob, event.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.events.EnsureEventShare(ctx, bob, event.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	title := "renamed"
	_, err = f.events.UpdateEvent(ctx, bob, event.ID, EventUpdateInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.events.UpdateEvent(ctx, nil, event.ID, EventUpdateInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.events.GetEvent(ctx, nil, 999, "")
	assert.ErrorIs(t, err, domain.ErrNotFound, "existence is checked before access")

	assert.ErrorIs(t, f.events.DeleteEvent(ctx, bob, event.ID), domain.ErrForbidden)

	got, err := f.events.GetEvent(ctx, admin, event.ID, "")
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	require.NoError(t, f.events.DeleteEvent(ctx, admin, event.ID))
	_, err = f.events.GetEvent(ctx, alice, event.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.events.CreateEvent(ctx, nil, EventCreateInput{Title: "x", EventDate: time.Now()})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEventService_ListFiltersByVisibility(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	alice := f.principal(t, 1, "alice", domain.RoleUser)
	bob := f.principal(t, 2, "bob", domain.RoleUser)
	admin := f.principal(t, 3, "root", domain.RoleAdmin)

	alicePrivate := f.createEvent(t, alice, "private")
	alicePublic := f.createEvent(t, alice, "public")
	bobPrivate := f.createEvent(t, bob, "private")

	ids := func(events []*domain.Event) []int64 {
		out := []int64{}
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}

	visible, err := f.events.ListEvents(ctx, alice, EventListFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alicePrivate.ID, alicePublic.ID}, ids(visible))

	visible, err = f.events.ListEvents(ctx, bob, EventListFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alicePublic.ID, bobPrivate.ID}, ids(visible))

	visible, err = f.events.ListEvents(ctx, admin, EventListFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 3)

	from := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.events.ListEvents(ctx, alice, EventListFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrValidation)

	visible, err = f.events.ListEvents(ctx, admin, EventListFilter{From: &from})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestEventService_UpdateAndValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	alice := f.principal(t, 1, "alice", domain.RoleUser)
	event := f.createEvent(t, alice, "")

	newTitle := "  Summer gala  "
	location := "Hall B"
	public := "public"
	date := time.Date(2026, 8, 1, 20, 0, 0, 0, time.FixedZone("CET", 3600))

	updated, err := f.events.UpdateEvent(ctx, alice, event.ID, EventUpdateInput{
		Title:      &newTitle,
		Location:   &location,
		Visibility: &public,
		EventDate:  &date,
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer gala", updated.Title)
	assert.Equal(t, "Hall B", *updated.Location)
	assert.Equal(t, domain.VisibilityPublic, updated.Visibility)
	assert.True(t, date.Equal(updated.EventDate))
	assert.NotNil(t, updated.UpdatedAt)

	_, err = f.events.GetEvent(ctx, nil, event.ID, "")
	assert.NoError(t, err, "public events are readable by guests")

	empty := "   "
	_, err = f.events.UpdateEvent(ctx, alice, event.ID, EventUpdateInput{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := "secret"
	_, err = f.events.UpdateEvent(ctx, alice, event.ID, EventUpdateInput{Visibility: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	long := make([]rune, 201)
	for i := range long {
		long[i] = 'é'
	}
	_, err = f.events.CreateEvent(ctx, alice, EventCreateInput{Title: string(long), EventDate: time.Now()})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.events.CreateEvent(ctx, alice, EventCreateInput{Title: "no date"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEventService_DeleteEventRemovesStoredFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	alice := f.principal(t, 1, "alice", domain.RoleUser)
	event := f.createEvent(t, alice, "private")
	other := f.createEvent(t, alice, "private")

	var items []*domain.Media
	for _, album := range []*domain.Album{f.createAlbum(t, alice, event.ID, "private"), f.createAlbum(t, alice, event.ID, "public")} {
		item, err := f.gallery.UploadMedia(ctx, alice, album.ID, UploadInput{Filename: "a.png", Body: bytes.NewReader(pngBytes(t, 40, 40))})
		require.NoError(t, err)
		require.NotNil(t, item.ThumbnailURL)
		items = append(items, item)
	}
	kept, err := f.gallery.UploadMedia(ctx, alice, f.createAlbum(t, alice, other.ID, "private").ID,
		UploadInput{Filename: "b.png", Body: bytes.NewReader(pngBytes(t, 40, 40))})
	require.NoError(t, err)

	require.NoError(t, f.events.DeleteEvent(ctx, alice, event.ID))

	for _, item := range items {
		_, err := os.Stat(f.localPath(item.FileURL))
		assert.True(t, os.IsNotExist(err), item.FileURL)
		_, err = os.Stat(f.localPath(*item.ThumbnailURL))
		assert.True(t, os.IsNotExist(err), *item.ThumbnailURL)
	}
	_, err = os.Stat(f.localPath(kept.FileURL))
	assert.NoError(t, err, "media of other events is untouched")
	assert.Contains(t, f.sent.types(), bus.MessageEventDeleted)
}
