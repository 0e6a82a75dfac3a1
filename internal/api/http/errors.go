package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/domain"
	"github.com/spec-kit/event-gallery/internal/service"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

// translateError maps service sentinels onto the DomainError the response is rendered from.
// Each sentinel maps to exactly one status.
func translateError(err error, uploadLimit int64) *apperrors.DomainError {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError(statusCode(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}

	var mapped error
	switch {
	case errors.Is(err, service.ErrUploadTooLarge):
		mapped = apperrors.NewPayloadTooLarge(uploadLimit)
	case errors.Is(err, domain.ErrValidation):
		mapped = apperrors.NewValidationError(detail(err, domain.ErrValidation), nil)
	case errors.Is(err, domain.ErrNotFound):
		mapped = apperrors.NewNotFound("resource", nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		mapped = apperrors.NewInvalidCredentials()
	case errors.Is(err, domain.ErrUnauthenticated):
		if auth.FailureKind(err) == "unauthenticated" {
			mapped = apperrors.NewUnauthorized("authentication required")
		} else {
			mapped = apperrors.NewUnauthorized("invalid token")
		}
	case errors.Is(err, domain.ErrForbidden):
		mapped = apperrors.NewForbidden(detail(err, domain.ErrForbidden))
	case errors.Is(err, domain.ErrAlreadyExists):
		mapped = apperrors.NewAlreadyExists(detail(err, domain.ErrAlreadyExists))
	default:
		return apperrors.ToDomainError(apperrors.NewInternalError(err))
	}
	return apperrors.ToDomainError(apperrors.WithCause(mapped, err))
}

// detail strips the sentinel prefix so "validation failed: title is required" renders as
// "title is required". Bare sentinels keep their own text.
func detail(err, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg && trimmed != "" {
		return trimmed
	}
	return sentinel.Error()
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusRequestTimeout:
		return "REQUEST_TIMEOUT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
