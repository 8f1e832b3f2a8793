package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrOAuthExchange       = errors.New("oauth exchange failed")
	ErrProfileFetch        = errors.New("profile fetch failed")
	ErrCredentialNotLinked = errors.New("credential not linked")
	ErrCredentialCorrupt   = errors.New("credential corrupt")
	ErrInternal            = errors.New("internal error")
	ErrServiceUnavail      = errors.New("service unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthenticated creates a 401 error. Missing cookie, bad signature, expired
// token, and unknown subject all collapse into this one code so callers learn
// nothing useful for account enumeration.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthenticated,
	}
}

// SessionRevoked creates a 401 error with a code distinct from UNAUTHENTICATED.
// The session signature verified but its version was superseded by a newer
// login; the client should prompt for a fresh sign-in.
func SessionRevoked() *AppError {
	return &AppError{
		Code:    "SESSION_REVOKED",
		Message: "session superseded by a newer login, please sign in again",
		Status:  http.StatusUnauthorized,
		Err:     ErrSessionRevoked,
	}
}

// OAuthExchange creates a 400 error for a failed authorization-code exchange.
func OAuthExchange(message string) *AppError {
	return &AppError{
		Code:    "OAUTH_EXCHANGE_FAILED",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrOAuthExchange,
	}
}

// ProfileFetch creates a 400 error for a failed or unusable provider profile.
func ProfileFetch(message string) *AppError {
	return &AppError{
		Code:    "PROFILE_FETCH_FAILED",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrProfileFetch,
	}
}

// CredentialNotLinked creates a 409 error for accounts that never completed
// a provider login.
func CredentialNotLinked() *AppError {
	return &AppError{
		Code:    "CREDENTIAL_NOT_LINKED",
		Message: "no provider credential is linked to this account",
		Status:  http.StatusConflict,
		Err:     ErrCredentialNotLinked,
	}
}

// CredentialCorrupt creates a 409 error signalling that the stored ciphertext
// and the encryption key no longer match; the user must re-link the provider.
func CredentialCorrupt() *AppError {
	return &AppError{
		Code:    "CREDENTIAL_CORRUPT",
		Message: "stored provider credential is unusable, please re-link the provider",
		Status:  http.StatusConflict,
		Err:     ErrCredentialCorrupt,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrOAuthExchange), errors.Is(err, ErrProfileFetch):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrSessionRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCredentialNotLinked), errors.Is(err, ErrCredentialCorrupt):
		return http.StatusConflict
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
