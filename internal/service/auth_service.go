package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/config"
	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/repository"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

const maxEmailLength = 255

// AuthService coordinates signup, login and token refresh.
type AuthService struct {
	users            repository.UserRepository
	hasher           *auth.PasswordHasher
	tokens           *auth.TokenManager
	dispatcher       bus.Dispatcher
	allowAdminSignup bool
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     *auth.PasswordHasher
	Tokens     *auth.TokenManager
	Dispatcher bus.Dispatcher
}

// SignupInput describes a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = bus.Nop{}
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewPasswordHasher(cfg.BcryptCost)
	}
	return &AuthService{
		users:            deps.UserRepo,
		hasher:           hasher,
		tokens:           deps.Tokens,
		dispatcher:       dispatcher,
		allowAdminSignup: cfg.AllowAdminSignup,
	}
}

// Signup creates a credential record. Username and email must both be unused.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if !usernamePattern.MatchString(username) {
		return nil, validationError("username must be 3-50 characters of letters, digits, '.', '_' or '-'")
	}
	if len(email) > maxEmailLength {
		return nil, validationError("email is too long")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, validationError("email is invalid")
	}
	if input.Password == "" {
		return nil, validationError("password is required")
	}
	if len(input.Password) > auth.MaxPasswordBytes {
		return nil, validationError("password must be at most 72 bytes")
	}
	role, err := domain.ParseRole(strings.ToLower(strings.TrimSpace(input.Role)))
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, forbiddenError("admin signup is disabled")
	}

	if err := s.ensureUnused(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, bus.NewMessage(bus.MessageUserSignedUp, bus.ResourceUser, user.ID, user.ID,
		bus.UserSignedUpPayload{Username: user.Username, Role: user.Role}))
	return user, nil
}

func (s *AuthService) ensureUnused(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// Login authenticates a user and issues an access and refresh token. Unknown users
// and wrong passwords produce the same error after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.VerifyMissing(password)
		return nil, auth.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, auth.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(domain.IdentityOf(user))
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (auth.IssuedToken, error) {
	return s.tokens.Refresh(refreshToken)
}

func (s *AuthService) publish(ctx context.Context, msg bus.Message) {
	_ = s.dispatcher.Publish(ctx, msg)
}
