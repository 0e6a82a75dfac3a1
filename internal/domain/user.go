package domain

import (
	"fmt"
	"time"
)

// Role governs elevated authorization.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string. An empty value yields RoleUser.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleAdmin:
		return Role(value), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, value)
	}
}

// User is the credential record owned by the user repository.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
