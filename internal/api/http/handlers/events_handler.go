package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-gallery/internal/api/dto"
	"github.com/spec-kit/event-gallery/internal/service"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

// EventsHandler manages event endpoints.
type EventsHandler struct {
	service *service.EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(eventService *service.EventService) *EventsHandler {
	return &EventsHandler{service: eventService}
}

// CreateEvent POST /events.
func (h *EventsHandler) CreateEvent(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EventDate.IsZero() {
		return apperrors.NewValidationError("event_date required", nil)
	}

	event, err := h.service.CreateEvent(c.UserContext(), principal, service.EventCreateInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		Location:    req.Location,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": eventResponse(event)})
}

// ListEvents GET /events?from=&to=.
func (h *EventsHandler) ListEvents(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	events, err := h.service.ListEvents(c.UserContext(), principal, service.EventListFilter{From: from, To: to})
	if err != nil {
		return err
	}
	items := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, eventResponse(event))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetEvent GET /events/:id and GET /events/share/:id. Guests may pass ?token=.
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.service.GetEvent(c.UserContext(), optionalPrincipal(c), id, c.Query("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// UpdateEvent PATCH /events/:id.
func (h *EventsHandler) UpdateEvent(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	event, err := h.service.UpdateEvent(c.UserContext(), principal, id, service.EventUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		Location:    req.Location,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// DeleteEvent DELETE /events/:id.
func (h *EventsHandler) DeleteEvent(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteEvent(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// EnsureShare POST /events/:id/qr.
func (h *EventsHandler) EnsureShare(c *fiber.Ctx) error {
	return h.share(c, false)
}

// RegenerateShare POST /events/:id/qr/regenerate.
func (h *EventsHandler) RegenerateShare(c *fiber.Ctx) error {
	return h.share(c, true)
}

func (h *EventsHandler) share(c *fiber.Ctx, regenerate bool) error {
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
		link, err = h.service.RegenerateEventShare(c.UserContext(), principal, id)
	} else {
		link, err = h.service.EnsureEventShare(c.UserContext(), principal, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EventShareResponse{
		EventID:  link.ResourceID,
		QRToken:  link.Token,
		ShareURL: link.URL,
	}})
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
}
