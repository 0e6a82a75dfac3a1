package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ToDomainError(nil))

	plain := errors.New("disk on fire")
	got := ToDomainError(plain)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorIs(t, got, plain)

	limited := ToDomainError(NewTooManyRequests(4))
	assert.Equal(t, http.StatusTooManyRequests, limited.HTTPStatus)
	assert.Equal(t, 4, limited.Details["retry_after"])
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	base := NewAlreadyExists("username taken")
	cause := errors.New("duplicate key")
	wrapped := WithCause(base, cause)

	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, base, cause, "the original is left untouched")
	assert.Equal(t, "username taken: duplicate key", wrapped.Error())

	assert.Equal(t, cause, WithCause(cause, base), "non-domain errors pass through")
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest, "VALIDATION_FAILED"},
		{NewNotFound("event", nil), http.StatusNotFound, "NOT_FOUND"},
		{NewUnauthorized("no"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{NewInvalidCredentials(), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{NewForbidden("no"), http.StatusForbidden, "FORBIDDEN"},
		{NewAlreadyExists("dup"), http.StatusConflict, "ALREADY_EXISTS"},
		{NewPayloadTooLarge(10), http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{NewInternalError(nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			var domainErr *DomainError
			require.ErrorAs(t, tt.err, &domainErr)
			assert.Equal(t, tt.status, domainErr.HTTPStatus)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
}
