package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/repository"
	"github.com/spec-kit/event-gallery/internal/storage"
)

// mediaFiles removes the stored objects behind media records once the rows are gone.
// Failures are logged and never surface to the caller.
type mediaFiles struct {
	store  storage.Store
	logger *zap.Logger
}

func (f mediaFiles) remove(ctx context.Context, items ...*domain.Media) {
	if f.store == nil {
		return
	}
	for _, item := range items {
		urls := []string{item.FileURL}
		if item.ThumbnailURL != nil {
			urls = append(urls, *item.ThumbnailURL)
		}
		for _, fileURL := range urls {
			if err := f.store.Delete(ctx, fileURL); err != nil {
				f.logger.Warn("remove stored file failed", zap.String("url", fileURL), zap.Error(err))
			}
		}
	}
}

// collectEventMedia gathers every media record under an event's albums.
func collectEventMedia(ctx context.Context, albums repository.AlbumRepository, media repository.MediaRepository, eventID int64) ([]*domain.Media, error) {
	list, err := albums.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var items []*domain.Media
	for _, album := range list {
		page, err := media.ListByAlbum(ctx, album.ID, 0, 0)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
	}
	return items, nil
}
