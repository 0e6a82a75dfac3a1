package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-gallery/internal/api/dto"
	"github.com/spec-kit/event-gallery/internal/service"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

const uploadFormField = "file"

// MediaHandler manages media endpoints.
type MediaHandler struct {
	gallery *service.GalleryService
}

// NewMediaHandler constructs handler.
func NewMediaHandler(gallery *service.GalleryService) *MediaHandler {
	return &MediaHandler{gallery: gallery}
}

// AddMedia POST /albums/:id/media registers already hosted media.
func (h *MediaHandler) AddMedia(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	albumID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item, err := h.gallery.AddMedia(c.UserContext(), principal, albumID, service.MediaCreateInput{
		FileURL:   req.FileURL,
		MediaType: req.MediaType,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mediaResponse(item)})
}

// Upload POST /albums/:id/media/upload with a multipart "file" field.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	albumID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	header, err := c.FormFile(uploadFormField)
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	item, err := h.gallery.UploadMedia(c.UserContext(), principal, albumID, service.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mediaResponse(item)})
}

// ListMedia GET /albums/:id/media?page=&limit=&token=.
func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	albumID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	result, err := h.gallery.ListMedia(c.UserContext(), optionalPrincipal(c), albumID, page, limit, c.Query("token"))
	if err != nil {
		return err
	}
	items := make([]dto.MediaResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mediaResponse(item))
	}
	return c.JSON(fiber.Map{"data": dto.MediaPageResponse{
		Items: items,
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.Total,
	}})
}

// GetMedia GET /media/:id.
func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.gallery.GetMedia(c.UserContext(), optionalPrincipal(c), id, c.Query("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mediaResponse(item)})
}

// DeleteMedia DELETE /media/:id.
func (h *MediaHandler) DeleteMedia(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.gallery.DeleteMedia(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
