package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

// Response is the JSON envelope written by every route.
type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    any                    `json:"data,omitempty"`
	Errors  []goAccount.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// tokenKind picks the wording and status for ErrInvalidOrExpiredToken.
type tokenKind int

const (
	tokenReset tokenKind = iota
	tokenRefresh
	tokenBearer
)

// statusFor maps an engine error to a status and client message. Unknown
// errors are reported as 500 with a generic message.
func statusFor(err error, kind tokenKind) (int, string) {
	switch {
	case errors.Is(err, goAccount.ErrValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, goAccount.ErrConflict):
		return http.StatusConflict, "User with this email already exists"
	case errors.Is(err, goAccount.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, goAccount.ErrNotVerified):
		return http.StatusForbidden, "Please verify email before login"
	case errors.Is(err, goAccount.ErrAccountLocked):
		return http.StatusLocked, "Account temporarily locked due to too many failed login attempts"
	case errors.Is(err, goAccount.ErrInvalidOrExpiredCode):
		return http.StatusBadRequest, "Invalid or expired verification code"
	case errors.Is(err, goAccount.ErrInvalidOrExpiredToken):
		switch kind {
		case tokenRefresh:
			return http.StatusUnauthorized, "Invalid or expired refresh token"
		case tokenBearer:
			return http.StatusUnauthorized, "Not authorized"
		default:
			return http.StatusBadRequest, "Invalid or expired reset token"
		}
	case errors.Is(err, goAccount.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, goAccount.ErrDependency):
		return http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again."
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func fieldsOf(err error) []goAccount.FieldError {
	var ve *goAccount.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// decodeJSON reads at most limit bytes into dst. An empty body decodes to
// the zero value so that the engine reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &goAccount.ValidationError{Fields: []goAccount.FieldError{{Field: "body", Message: "must be a valid JSON object"}}}
	}
	if dec.More() {
		return &goAccount.ValidationError{Fields: []goAccount.FieldError{{Field: "body", Message: "must contain a single JSON object"}}}
	}
	return nil
}
