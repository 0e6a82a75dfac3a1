package auth

import "github.com/spec-kit/event-gallery/internal/domain"

// Principal is the caller identity recovered from a verified access token.
// Only the TokenManager constructs one; the fields are read through methods.
type Principal struct {
	subjectID int64
	username  string
	email     string
	role      domain.Role
}

// SubjectID returns the stable user id.
func (p *Principal) SubjectID() int64 { return p.subjectID }

// Username returns the login handle.
func (p *Principal) Username() string { return p.username }

// Email returns the address carried in the token, empty for older tokens.
func (p *Principal) Email() string { return p.email }

// Role returns the role snapshot taken when the token was issued.
func (p *Principal) Role() domain.Role { return p.role }

// IsAdmin reports whether the principal carries the admin role. A nil principal is a guest.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.role == domain.RoleAdmin
}

// Identity returns the claims snapshot, used to mint new access tokens on refresh.
func (p *Principal) Identity() domain.Identity {
	return domain.Identity{SubjectID: p.subjectID, Username: p.username, Email: p.email, Role: p.role}
}
