package auth

import (
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/event-gallery/internal/domain"
)

const (
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

var signingMethod = jwt.SigningMethodHS256

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// NewTokenManager builds a new manager. Non-positive TTLs fall back to 30 minutes and 7 days.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	tm := &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes JWT payload.
type Claims struct {
	Username string           `json:"username"`
	Email    string           `json:"email,omitempty"`
	Role     domain.Role      `json:"role,omitempty"`
	Kind     domain.TokenKind `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token together with its metadata.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// AccessTTL returns the configured access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// IssueAccess signs a short-lived access token for identity.
func (tm *TokenManager) IssueAccess(identity domain.Identity) (IssuedToken, error) {
	return tm.issue(identity, domain.TokenKindAccess, tm.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for identity.
func (tm *TokenManager) IssueRefresh(identity domain.Identity) (IssuedToken, error) {
	return tm.issue(identity, domain.TokenKindRefresh, tm.refreshTTL)
}

// IssuePair signs an access and a refresh token for identity.
func (tm *TokenManager) IssuePair(identity domain.Identity) (TokenPair, error) {
	access, err := tm.IssueAccess(identity)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.IssueRefresh(identity)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (tm *TokenManager) issue(identity domain.Identity, kind domain.TokenKind, ttl time.Duration) (IssuedToken, error) {
	issuedAt := tm.now()
	// NumericDate keeps whole seconds, so exp may land up to a second before
	// issuedAt+ttl. IssuedToken.ExpiresAt reports the truncated instant.
	expiresAt := issuedAt.Add(ttl)
	tokenID := uuid.NewString()

	claims := &Claims{
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.SubjectID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: tokenString, ID: tokenID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify validates an access token and returns the caller's principal.
// Checks run in order: signature, expiry, required claims, token kind.
func (tm *TokenManager) Verify(tokenStr string) (*Principal, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	principal, err := principalFromClaims(claims)
	if err != nil {
		return nil, err
	}
	// Tokens minted before the type claim existed are access tokens.
	if claims.Kind != "" && claims.Kind != domain.TokenKindAccess {
		return nil, ErrWrongTokenType
	}
	return principal, nil
}

// VerifyOptional is Verify for endpoints that serve guests too: any failure yields nil.
func (tm *TokenManager) VerifyOptional(tokenStr string) *Principal {
	if tokenStr == "" {
		return nil
	}
	principal, err := tm.Verify(tokenStr)
	if err != nil {
		return nil
	}
	return principal
}

// Refresh exchanges a refresh token for a new access token carrying the same claims.
// The credential store is not consulted, so role changes apply only after the refresh token expires.
func (tm *TokenManager) Refresh(tokenStr string) (IssuedToken, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return IssuedToken{}, err
	}
	principal, err := principalFromClaims(claims)
	if err != nil {
		return IssuedToken{}, err
	}
	if claims.Kind != domain.TokenKindRefresh {
		return IssuedToken{}, ErrWrongTokenType
	}
	return tm.IssueAccess(principal.Identity())
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != signingMethod {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if claims.ExpiresAt == nil {
		return nil, ErrMalformedClaims
	}
	if tm.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func principalFromClaims(claims *Claims) (*Principal, error) {
	if claims.Subject == "" || claims.Username == "" {
		return nil, ErrMalformedClaims
	}
	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrMalformedClaims
	}
	role, err := domain.ParseRole(string(claims.Role))
	if err != nil {
		return nil, ErrMalformedClaims
	}
	return &Principal{
		subjectID: subjectID,
		username:  claims.Username,
		email:     claims.Email,
		role:      role,
	}, nil
}
