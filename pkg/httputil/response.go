package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/relayhq/identity/pkg/errors"
	"github.com/relayhq/identity/pkg/logger"
	"github.com/relayhq/identity/pkg/validator"
)

// Response is the standard JSON response envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// classifyError maps sentinel errors to their wire representation. Anything
// unrecognized collapses into a generic 500 so raw provider or database
// errors never reach a response body verbatim.
func classifyError(err error) (code, message string, status int) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "NOT_FOUND", "resource not found", http.StatusNotFound
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "ALREADY_EXISTS", "resource already exists", http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "INVALID_INPUT", err.Error(), http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return "UNAUTHENTICATED", "authentication required", http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrSessionRevoked):
		return "SESSION_REVOKED", "session has been revoked", http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrOAuthExchange):
		return "OAUTH_EXCHANGE_FAILED", "authorization code exchange failed", http.StatusBadRequest
	case errors.Is(err, apperrors.ErrProfileFetch):
		return "PROFILE_FETCH_FAILED", "profile fetch failed", http.StatusBadRequest
	case errors.Is(err, apperrors.ErrCredentialNotLinked):
		return "CREDENTIAL_NOT_LINKED", "no credential linked for provider", http.StatusConflict
	case errors.Is(err, apperrors.ErrCredentialCorrupt):
		return "CREDENTIAL_CORRUPT", "stored credential could not be decrypted", http.StatusConflict
	case errors.Is(err, apperrors.ErrServiceUnavail):
		return "SERVICE_UNAVAILABLE", "service temporarily unavailable", http.StatusServiceUnavailable
	default:
		return "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError
	}
}

// WriteError writes a standardized error response based on the error type.
// AppErrors keep their code, message, and status; everything else goes
// through classifyError. Internal errors are logged with the request-scoped
// logger when one is present, falling back to the provided logger otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	code, message, status := classifyError(err)
	if status == http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{
		Error: &ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

// WriteValidationError writes a standardized validation error response with
// field-level details when the error came from the validator package.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}
