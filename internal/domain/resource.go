package domain

import "fmt"

// Visibility distinguishes unrestricted reads from owner/admin/share-token gated reads.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ParseVisibility validates a visibility string. An empty value yields VisibilityPrivate.
func ParseVisibility(value string) (Visibility, error) {
	switch Visibility(value) {
	case "":
		return VisibilityPrivate, nil
	case VisibilityPrivate, VisibilityPublic:
		return Visibility(value), nil
	default:
		return "", fmt.Errorf("%w: unknown visibility %q", ErrValidation, value)
	}
}

// Envelope is the ownership and visibility shape shared by events, albums and media.
type Envelope struct {
	OwnerID    int64
	Visibility Visibility
	ShareToken string
}

// Owned is implemented by every resource the access engine gates.
type Owned interface {
	Ownership() Envelope
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
