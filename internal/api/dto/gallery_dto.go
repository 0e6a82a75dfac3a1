package dto

import (
	"time"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// CreateAlbumRequest payload.
type CreateAlbumRequest struct {
	EventID     int64   `json:"event_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Visibility  string  `json:"visibility"`
}

// UpdateAlbumRequest is a partial update.
type UpdateAlbumRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}

// AlbumResponse is the public view of an album.
type AlbumResponse struct {
	ID          int64             `json:"id"`
	EventID     int64             `json:"event_id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	OwnerID     int64             `json:"owner_id"`
	Visibility  domain.Visibility `json:"visibility"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AlbumShareResponse is returned by the album QR endpoints.
type AlbumShareResponse struct {
	AlbumID  int64  `json:"album_id"`
	QRToken  string `json:"qr_token"`
	ShareURL string `json:"share_url"`
}

// CreateMediaRequest registers media hosted elsewhere.
type CreateMediaRequest struct {
	FileURL   string `json:"file_url"`
	MediaType string `json:"media_type"`
}

// MediaResponse describes one media item.
type MediaResponse struct {
	ID           int64            `json:"id"`
	AlbumID      int64            `json:"album_id"`
	OwnerID      int64            `json:"owner_id"`
	FileURL      string           `json:"file_url"`
	ThumbnailURL *string          `json:"thumbnail_url"`
	MediaType    domain.MediaType `json:"media_type"`
	ContentType  string           `json:"content_type,omitempty"`
	SizeBytes    int64            `json:"size_bytes,omitempty"`
	UploadedAt   time.Time        `json:"uploaded_at"`
}

// MediaPageResponse is one page of media.
type MediaPageResponse struct {
	Items []MediaResponse `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}
