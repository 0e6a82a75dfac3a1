package auth

import (
	"crypto/subtle"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// Operation is an action attempted on a resource.
type Operation string

const (
	OpRead        Operation = "read"
	OpCreate      Operation = "create"
	OpUpdate      Operation = "update"
	OpDelete      Operation = "delete"
	OpManageShare Operation = "manage_share"
)

// DenyReason explains a negative decision.
type DenyReason string

const (
	ReasonUnauthenticated DenyReason = "unauthenticated"
	ReasonForbidden       DenyReason = "forbidden"
)

// Decision is the verdict of Decide.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Decision{Allowed: true}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err converts the decision into the matching domain error, nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrForbidden
	}
}

// Decide gates op on a resource. principal is nil for guests and shareToken is the
// token the caller presented, if any. Rules are evaluated top to bottom and the first
// match wins; public and shared reads never need a principal.
func Decide(principal *Principal, resource domain.Envelope, op Operation, shareToken string) Decision {
	if op == OpRead && resource.Visibility == domain.VisibilityPublic {
		return allow
	}
	if op == OpRead && shareTokenMatches(shareToken, resource.ShareToken) {
		return allow
	}
	if principal == nil {
		return deny(ReasonUnauthenticated)
	}
	if principal.IsAdmin() {
		return allow
	}
	switch op {
	case OpRead, OpUpdate, OpDelete, OpManageShare:
		if principal.subjectID == resource.OwnerID {
			return allow
		}
	case OpCreate:
		if principal.role == domain.RoleUser || principal.role == domain.RoleAdmin {
			return allow
		}
	}
	return deny(ReasonForbidden)
}

// Visible is the listing predicate: admins see everything, everyone else sees
// what they own plus public resources.
func Visible(principal *Principal, resource domain.Envelope) bool {
	return Decide(principal, resource, OpRead, "").Allowed
}

// Filter keeps the items principal may see, preserving order.
func Filter[T domain.Owned](principal *Principal, items []T) []T {
	visible := make([]T, 0, len(items))
	for _, item := range items {
		if Visible(principal, item.Ownership()) {
			visible = append(visible, item)
		}
	}
	return visible
}

func shareTokenMatches(presented, stored string) bool {
	if presented == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
