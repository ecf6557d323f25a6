package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("an account with this email already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrEmailNotConfirmed = errors.New("email address not confirmed")
var ErrInvalidConfirmation = errors.New("invalid or expired confirmation link")
var ErrSessionNotFound = errors.New("session not found")
var ErrProfileNotFound = errors.New("profile not found")
var ErrAvatarNotFound = errors.New("avatar not found")

// ValidationError is a local input rejection raised before any backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
