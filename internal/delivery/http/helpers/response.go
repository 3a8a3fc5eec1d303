package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventdesk/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeTooManyRequests = "too_many_requests"
	ErrCodeInternalError   = "internal_error"
)

// APIError is the body of every error response. Details holds per-field
// validation messages and is omitted otherwise.
// swagger:model APIError
type APIError struct {
	Error   string           `json:"error"`
	Code    string           `json:"code"`
	Details ValidationErrors `json:"details,omitempty"`
}

// APIResponse is the envelope of every successful response. Meta carries
// pagination on list endpoints.
// swagger:model APIResponse
type APIResponse struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONSuccessWithMeta is WriteJSONSuccess with a meta object, used by paginated lists.
func WriteJSONSuccessWithMeta(w http.ResponseWriter, statusCode int, data, meta any) {
	writeJSON(w, statusCode, APIResponse{Data: data, Meta: meta})
}

// WriteJSONError writes an error envelope with the given code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, APIError{Error: message, Code: code})
}

// WriteValidationError writes a 400 with per-field details.
func WriteValidationError(w http.ResponseWriter, errs ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, APIError{
		Error:   "Validation failed",
		Code:    ErrCodeBadRequest,
		Details: errs,
	})
}

// WriteServiceError maps an error returned by a service to a status code and
// error envelope. Messages of *domain.Error are shown to the caller; anything
// unclassified is logged and answered with a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	var de *domain.Error
	if errors.As(err, &de) {
		WriteJSONError(w, status, code, de.Message)
		return
	}
	WriteJSONError(w, status, code, kindMessage(err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrStaleWrite):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrAlreadyReviewer):
		return http.StatusBadRequest, ErrCodeConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// kindMessage returns the sentinel's own text so wrapping context from the
// repository layer does not leak into responses.
func kindMessage(err error) string {
	for _, kind := range []error{
		domain.ErrStaleWrite, domain.ErrAlreadyReviewer, domain.ErrDuplicateEmail, domain.ErrConflict,
		domain.ErrInvalidInput, domain.ErrUnauthorized, domain.ErrForbidden,
		domain.ErrUserNotFound, domain.ErrNotFound,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
