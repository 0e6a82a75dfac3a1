package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/repository"
)

const shareTokenAttempts = 3

// ShareLink is what the share endpoints hand back.
type ShareLink struct {
	ResourceID int64
	Token      string
	URL        string
}

// shareTokenSetter persists a candidate token and returns the token on record.
type shareTokenSetter func(ctx context.Context, token string) (string, error)

// storeShareToken generates a token and persists it, retrying on the rare collision
// with a token held by another resource. created reports whether the stored token
// is the one generated here.
func storeShareToken(ctx context.Context, newToken func() (string, error), set shareTokenSetter) (string, bool, error) {
	var lastErr error
	for attempt := 0; attempt < shareTokenAttempts; attempt++ {
		candidate, err := newToken()
		if err != nil {
			return "", false, fmt.Errorf("generate share token: %w", err)
		}
		stored, err := set(ctx, candidate)
		if errors.Is(err, repository.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return "", false, err
		}
		return stored, stored == candidate, nil
	}
	return "", false, lastErr
}

func shareURL(baseURL, kind string, id int64, token string) string {
	return fmt.Sprintf("%s/share/%s/%d?token=%s", baseURL, kind, id, url.QueryEscape(token))
}

func defaultTokenSource(fn func() (string, error)) func() (string, error) {
	if fn != nil {
		return fn
	}
	return auth.NewShareToken
}
