package goAccount

import (
	"errors"
	"net/http"
)

// Envelope is the uniform response body produced by HTTP frontends built on
// the engine. Error and Success are both carried so clients can branch on
// either flag.
type Envelope struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{
		Message: message,
		Success: true,
		Data:    data,
	}
}

// Fail builds an error envelope.
func Fail(message string) Envelope {
	return Envelope{
		Message: message,
		Error:   true,
	}
}

// StatusForError maps engine sentinel errors to HTTP status codes. Unknown
// errors map to 500 so that store and transport failures are never reported
// as client mistakes. A missing account is a plain 400: the envelope
// message already says what went wrong, and a 404 would leak which route
// shapes exist versus which accounts do.
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrOTPExpired),
		errors.Is(err, ErrOTPMismatch),
		errors.Is(err, ErrVerificationInvalid),
		errors.Is(err, ErrVerificationAttempts),
		errors.Is(err, ErrResetTicketInvalid),
		errors.Is(err, ErrResetAttempts):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenMissing),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrRefreshReuse):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrAccountUnverified):
		return http.StatusForbidden
	case errors.Is(err, ErrAccountExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
