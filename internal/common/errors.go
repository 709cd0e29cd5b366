// Package common defines shared constants and sentinel errors used across
// the YelpCamp server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorForbidden       = errors.New("forbidden")
	ErrorValidation      = errors.New("validation error")
	ErrorExternalService = errors.New("external service failure")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")

	// Reset token is unknown, already redeemed or past its expiry.
	ErrInvalidResetToken = errors.New("password reset token is invalid or has expired")
)

// UserError carries a message that is safe to show to end users next to the
// error kind it belongs to and the underlying cause, if any.
type UserError struct {
	Kind    error
	Message string
	Cause   error
}

// NewUserError builds a UserError. kind should be one of the sentinels above.
func NewUserError(kind error, message string, cause error) error {
	return &UserError{Kind: kind, Message: message, Cause: cause}
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *UserError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// PublicMessage returns the user-facing message carried by err, or fallback
// when err holds none.
func PublicMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}
