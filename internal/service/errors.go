package service

import (
	"fmt"

	"github.com/spec-kit/event-gallery/internal/auth"
	"github.com/spec-kit/event-gallery/internal/domain"
)

// ErrUploadTooLarge is returned when an upload exceeds the configured limit.
var ErrUploadTooLarge = fmt.Errorf("%w: upload exceeds size limit", domain.ErrValidation)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}

func forbiddenError(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
}

// readError converts a read decision into an error. A denied read answers Forbidden
// for guests too, so private resources never prompt for credentials.
func readError(decision auth.Decision) error {
	if decision.Allowed {
		return nil
	}
	return domain.ErrForbidden
}
