package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-gallery/internal/api/dto"
	"github.com/spec-kit/event-gallery/internal/service"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

// AlbumsHandler manages album endpoints.
type AlbumsHandler struct {
	gallery *service.GalleryService
}

// NewAlbumsHandler constructs handler.
func NewAlbumsHandler(gallery *service.GalleryService) *AlbumsHandler {
	return &AlbumsHandler{gallery: gallery}
}

// CreateAlbum POST /albums.
func (h *AlbumsHandler) CreateAlbum(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateAlbumRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EventID <= 0 {
		return apperrors.NewValidationError("event_id required", nil)
	}

	album, err := h.gallery.CreateAlbum(c.UserContext(), principal, service.AlbumCreateInput{
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": albumResponse(album)})
}

// ListByEvent GET /events/:id/albums.
func (h *AlbumsHandler) ListByEvent(c *fiber.Ctx) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	albums, err := h.gallery.ListAlbumsByEvent(c.UserContext(), optionalPrincipal(c), eventID, c.Query("token"))
	if err != nil {
		return err
	}
	items := make([]dto.AlbumResponse, 0, len(albums))
	for _, album := range albums {
		items = append(items, albumResponse(album))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAlbum GET /albums/:id and GET /albums/share/:id.
func (h *AlbumsHandler) GetAlbum(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	album, err := h.gallery.GetAlbum(c.UserContext(), optionalPrincipal(c), id, c.Query("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": albumResponse(album)})
}

// UpdateAlbum PATCH /albums/:id.
func (h *AlbumsHandler) UpdateAlbum(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateAlbumRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	album, err := h.gallery.UpdateAlbum(c.UserContext(), principal, id, service.AlbumUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": albumResponse(album)})
}

// DeleteAlbum DELETE /albums/:id.
func (h *AlbumsHandler) DeleteAlbum(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.gallery.DeleteAlbum(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// EnsureShare POST /albums/:id/qr.
func (h *AlbumsHandler) EnsureShare(c *fiber.Ctx) error {
	return h.share(c, false)
}

// RegenerateShare POST /albums/:id/qr/regenerate.
func (h *AlbumsHandler) RegenerateShare(c *fiber.Ctx) error {
	return h.share(c, true)
}

func (h *AlbumsHandler) share(c *fiber.Ctx, regenerate bool) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var link service.ShareLink
	if regenerate {
		link, err = h.gallery.RegenerateAlbumShare(c.UserContext(), principal, id)
	} else {
		link, err = h.gallery.EnsureAlbumShare(c.UserContext(), principal, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AlbumShareResponse{
		AlbumID:  link.ResourceID,
		QRToken:  link.Token,
		ShareURL: link.URL,
	}})
}
