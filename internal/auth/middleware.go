package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/observability"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Verifier is the token verification contract the middleware depends on.
type Verifier interface {
	Verify(tokenStr string) (*Principal, error)
	VerifyOptional(tokenStr string) *Principal
}

// AuthMiddleware validates bearer tokens and stores principals on the request.
type AuthMiddleware struct {
	tokens  Verifier
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens Verifier, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger, metrics: metrics}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	principal, err := m.tokens.Verify(token)
	if err != nil {
		kind := FailureKind(err)
		m.metrics.RecordAuthFailure(kind)
		m.logger.Debug("token rejected", zap.String("kind", kind), zap.String("path", c.Path()))
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// Optional attaches a principal when a valid bearer token is present and treats
// every other caller, including ones with a bad token, as a guest.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	if token, ok := bearerToken(c.Get(fiber.HeaderAuthorization)); ok {
		if principal := m.tokens.VerifyOptional(token); principal != nil {
			c.Locals(principalKey, principal)
		}
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
