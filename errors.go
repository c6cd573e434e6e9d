package goAccount

import (
	"errors"
	"strings"
)

var (
	// ErrValidation is returned for malformed input. The concrete error is a
	// *ValidationError listing the offending fields.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned by Register when the normalized email is taken.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotVerified is returned by Login for accounts that never verified their email.
	ErrNotVerified = errors.New("email not verified")
	// ErrAccountLocked is returned while the login guard holds a lock.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrInvalidOrExpiredCode is returned for any rejected verification code.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	// ErrInvalidOrExpiredToken is returned for any rejected reset or session token.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrNotFound is returned by lookups by id or email that match nothing.
	ErrNotFound = errors.New("account not found")
	// ErrDependency is returned when the store or the email gateway is unavailable.
	ErrDependency = errors.New("dependency unavailable")
	// ErrInternal covers everything else.
	ErrInternal = errors.New("internal error")

	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is the concrete error behind ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
