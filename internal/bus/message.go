package bus

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// MessageType enumerates supported message identifiers.
type MessageType string

const (
	MessageUserSignedUp  MessageType = "user.signed_up"
	MessageEventCreated  MessageType = "event.created"
	MessageEventDeleted  MessageType = "event.deleted"
	MessageShareIssued   MessageType = "share.issued"
	MessageAlbumCreated  MessageType = "album.created"
	MessageAlbumDeleted  MessageType = "album.deleted"
	MessageMediaUploaded MessageType = "media.uploaded"
	MessageMediaDeleted  MessageType = "media.deleted"
)

// AllMessageTypes lists every type services publish.
var AllMessageTypes = []MessageType{
	MessageUserSignedUp,
	MessageEventCreated,
	MessageEventDeleted,
	MessageShareIssued,
	MessageAlbumCreated,
	MessageAlbumDeleted,
	MessageMediaUploaded,
	MessageMediaDeleted,
}

// ResourceKind names the resource a message is about.
type ResourceKind string

const (
	ResourceUser  ResourceKind = "user"
	ResourceEvent ResourceKind = "event"
	ResourceAlbum ResourceKind = "album"
	ResourceMedia ResourceKind = "media"
)

// Message is a domain notification emitted by services.
type Message struct {
	ID         string       `json:"id"`
	Type       MessageType  `json:"type"`
	Resource   ResourceKind `json:"resource"`
	ResourceID int64        `json:"resource_id"`
	ActorID    int64        `json:"actor_id,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
	Payload    any          `json:"payload,omitempty"`
}

// NewMessage stamps a message with a fresh id and the current time.
func NewMessage(msgType MessageType, resource ResourceKind, resourceID, actorID int64, payload any) Message {
	return Message{
		ID:         uuid.NewString(),
		Type:       msgType,
		Resource:   resource,
		ResourceID: resourceID,
		ActorID:    actorID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// UserSignedUpPayload payload.
type UserSignedUpPayload struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// EventCreatedPayload payload.
type EventCreatedPayload struct {
	Title      string            `json:"title"`
	EventDate  time.Time         `json:"event_date"`
	Visibility domain.Visibility `json:"visibility"`
}

// ShareIssuedPayload payload. The token itself is never published.
type ShareIssuedPayload struct {
	Regenerated bool `json:"regenerated"`
}

// AlbumCreatedPayload payload.
type AlbumCreatedPayload struct {
	EventID int64  `json:"event_id"`
	Name    string `json:"name"`
}

// AlbumDeletedPayload payload.
type AlbumDeletedPayload struct {
	EventID      int64 `json:"event_id"`
	MediaRemoved int   `json:"media_removed"`
}

// MediaUploadedPayload payload.
type MediaUploadedPayload struct {
	AlbumID      int64            `json:"album_id"`
	MediaType    domain.MediaType `json:"media_type"`
	ContentType  string           `json:"content_type,omitempty"`
	SizeBytes    int64            `json:"size_bytes"`
	HasThumbnail bool             `json:"has_thumbnail"`
}

// MediaDeletedPayload payload.
type MediaDeletedPayload struct {
	AlbumID int64 `json:"album_id"`
}
