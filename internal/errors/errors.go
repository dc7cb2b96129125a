package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for any token verification failure:
	// bad signature, expired claim, or a missing/revoked session row.
	// Callers cannot distinguish the cases.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUsernameExists is returned when registering a duplicate username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists is returned when registering a duplicate email.
	ErrEmailExists = errors.New("email already exists")
	// ErrAccountDeactivated is returned when a deactivated user logs in.
	ErrAccountDeactivated = errors.New("account is deactivated")
	// ErrAccessDenied is returned when role or ownership checks fail.
	ErrAccessDenied = errors.New("access denied")
	// ErrPatientNotFound is returned when a patient record is absent.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrVisitNotFound is returned when a visit record is absent.
	ErrVisitNotFound = errors.New("visit not found")
	// ErrUserNotFound is returned when a user record is absent.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError marks malformed or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure from an external provider (transcription or
// language model). The intake pipeline never advances past one of these.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrorResponse is the single error body shape returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPError pairs a status code with a response message.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unrecognized
// collapses to a generic 500 so internals never leak to the caller.
func MapErrorToHTTP(err error) *HTTPError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: ve.Message}
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: ue.Error()}
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return &HTTPError{StatusCode: http.StatusUnauthorized, Message: err.Error()}
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrAccountDeactivated):
		return &HTTPError{StatusCode: http.StatusForbidden, Message: err.Error()}
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrVisitNotFound), errors.Is(err, ErrUserNotFound):
		return &HTTPError{StatusCode: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, ErrUsernameExists), errors.Is(err, ErrEmailExists):
		return &HTTPError{StatusCode: http.StatusConflict, Message: err.Error()}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "internal server error"}
	}
}
