package dto

import (
	"time"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// CreateEventRequest payload.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Location    *string   `json:"location"`
	Visibility  string    `json:"visibility"`
}

// UpdateEventRequest is a partial update; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	EventDate   *time.Time `json:"event_date"`
	Location    *string    `json:"location"`
	Visibility  *string    `json:"visibility"`
}

// EventResponse is the public view of an event. The share token is only ever
// returned by the share endpoints.
type EventResponse struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	EventDate   time.Time         `json:"event_date"`
	Location    *string           `json:"location"`
	OwnerID     int64             `json:"owner_id"`
	Visibility  domain.Visibility `json:"visibility"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   *time.Time        `json:"updated_at"`
}

// EventShareResponse is returned by the event QR endpoints.
type EventShareResponse struct {
	EventID  int64  `json:"event_id"`
	QRToken  string `json:"qr_token"`
	ShareURL string `json:"share_url"`
}
