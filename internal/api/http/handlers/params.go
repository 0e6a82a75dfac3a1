package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-gallery/internal/api/dto"
	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/domain"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

// optionalPrincipal returns the caller or nil for guests.
func optionalPrincipal(c *fiber.Ctx) *auth.Principal {
	principal, _ := auth.PrincipalFromContext(c)
	return principal
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return val, nil
}

func eventResponse(event *domain.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		EventDate:   event.EventDate,
		Location:    event.Location,
		OwnerID:     event.OwnerID,
		Visibility:  event.Visibility,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func albumResponse(album *domain.Album) dto.AlbumResponse {
	return dto.AlbumResponse{
		ID:          album.ID,
		EventID:     album.EventID,
		Name:        album.Name,
		Description: album.Description,
		OwnerID:     album.OwnerID,
		Visibility:  album.Visibility,
		CreatedAt:   album.CreatedAt,
	}
}

func mediaResponse(item *domain.Media) dto.MediaResponse {
	return dto.MediaResponse{
		ID:           item.ID,
		AlbumID:      item.AlbumID,
		OwnerID:      item.OwnerID,
		FileURL:      item.FileURL,
		ThumbnailURL: item.ThumbnailURL,
		MediaType:    item.MediaType,
		ContentType:  item.ContentType,
		SizeBytes:    item.SizeBytes,
		UploadedAt:   item.UploadedAt,
	}
}
