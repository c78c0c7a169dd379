package models

import "errors"

// Errors shared by repositories, services and handlers.
// Handlers classify them with errors.Is; anything else is an internal failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrConflict           = errors.New("already exists")
)

// ValidationError describes a request that failed input validation
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
