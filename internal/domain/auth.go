package domain

// TokenKind differentiates access and refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Identity carries the claims snapshot a token is issued for.
type Identity struct {
	SubjectID int64
	Username  string
	Email     string
	Role      Role
}

// IdentityOf snapshots a credential record for token issuance.
func IdentityOf(user *User) Identity {
	return Identity{
		SubjectID: user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
	}
}
