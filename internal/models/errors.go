package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories, services and handlers.
// Lower layers wrap them with fmt.Errorf("...: %w", err) and handlers match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrDuplicate    = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("not enough permissions")

	ErrDuplicateUsername = fmt.Errorf("username %w", ErrDuplicate)
	ErrDuplicateEmail    = fmt.Errorf("email %w", ErrDuplicate)
	ErrInvalidToken      = fmt.Errorf("invalid token: %w", ErrUnauthorized)
	ErrInvalidOwner      = fmt.Errorf("%w: invalid user_id", ErrValidation)
)

// ValidationError builds an error wrapping ErrValidation with a human readable message
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
