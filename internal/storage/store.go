package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/event-gallery/internal/config"
)

// ErrInvalidKey is returned for keys that would escape the store's namespace.
var ErrInvalidKey = errors.New("invalid storage key")

// Store persists uploaded media and hands back the public URL of each object.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object behind fileURL. URLs the store did not issue are ignored.
	Delete(ctx context.Context, fileURL string) error
	// Owns reports whether fileURL names an object in the store's namespace, which
	// is exactly the set of URLs Delete acts on.
	Owns(fileURL string) bool
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
	case "s3":
		return NewS3(cfg), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewKey returns a collision-free object name that keeps the original extension.
func NewKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// ThumbnailKey derives the thumbnail object name for key.
func ThumbnailKey(key string) string {
	return "thumbnails/" + strings.TrimSuffix(key, path.Ext(key)) + ".jpg"
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// keyFromURL strips base from fileURL, reporting whether fileURL lives under base.
func keyFromURL(base, fileURL string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(fileURL, prefix)
	return key, validKey(key)
}
