package domain

import (
	"fmt"
	"time"
)

// MediaType enumerates supported media kinds.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Media is a single file inside an album.
type Media struct {
	ID           int64
	AlbumID      int64
	OwnerID      int64
	FileURL      string
	ThumbnailURL *string
	MediaType    MediaType
	ContentType  string
	SizeBytes    int64
	UploadedAt   time.Time
}

// EnvelopeWithin derives the media envelope: the uploader owns it, the album decides who may see it.
func (m *Media) EnvelopeWithin(album *Album) Envelope {
	env := album.Ownership()
	env.OwnerID = m.OwnerID
	return env
}

// ParseMediaType validates a media type string.
func ParseMediaType(value string) (MediaType, error) {
	switch MediaType(value) {
	case MediaTypeImage, MediaTypeVideo:
		return MediaType(value), nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", ErrValidation, value)
	}
}
