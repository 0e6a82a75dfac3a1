package auth

import (
	"errors"
	"fmt"

	"github.com/spec-kit/event-gallery/internal/domain"
)

// Token verification failures. All of them wrap domain.ErrUnauthenticated so callers
// can answer with one generic response while logs keep the specific kind.
var (
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", domain.ErrUnauthenticated)
	ErrTokenExpired     = fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	ErrMalformedClaims  = fmt.Errorf("%w: malformed token claims", domain.ErrUnauthenticated)
	ErrWrongTokenType   = fmt.Errorf("%w: wrong token type", domain.ErrUnauthenticated)
)

// FailureKind names a verification failure for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrMalformedClaims):
		return "malformed_claims"
	case errors.Is(err, ErrWrongTokenType):
		return "wrong_token_type"
	default:
		return "unauthenticated"
	}
}
