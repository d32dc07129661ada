package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mvetrov/churnguard/internal/auth"
	"github.com/mvetrov/churnguard/internal/model"
	"github.com/mvetrov/churnguard/internal/scoring"
)

// ErrorCode represents machine-readable error codes
type ErrorCode string

const (
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrCodeRequestTooLarge  ErrorCode = "REQUEST_TOO_LARGE"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error     string            `json:"error"`                // HTTP status text
	Message   string            `json:"message"`              // Human-readable description
	Code      ErrorCode         `json:"code"`                 // Machine-readable error code
	Fields    map[string]string `json:"fields,omitempty"`     // Field-level errors
	RequestID string            `json:"request_id,omitempty"` // Request ID for debugging
}

// NewErrorResponse creates a new error response
func NewErrorResponse(statusCode int, code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	}
}

// WithFields adds field-level errors to the response
func (e *ErrorResponse) WithFields(fields map[string]string) *ErrorResponse {
	e.Fields = fields
	return e
}

// writeErrorResponse writes a structured error response to the http response writer
func writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errResp *ErrorResponse) {
	// Add request ID from chi middleware if available
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		errResp.RequestID = reqID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errResp)
}

// BadRequestError creates a bad request error response
func BadRequestError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	writeErrorResponse(w, r, http.StatusBadRequest, NewErrorResponse(http.StatusBadRequest, code, message))
}

// UnauthorizedError creates an unauthorized error response
func UnauthorizedError(w http.ResponseWriter, r *http.Request, message string) {
	writeErrorResponse(w, r, http.StatusUnauthorized, NewErrorResponse(http.StatusUnauthorized, ErrCodeUnauthorized, message))
}

// writeDomainError maps a scoring/auth/model error to the HTTP taxonomy:
// ValidationError -> 400, model unavailable -> 503, anything else -> 500
// with a generic message. Internal detail is only exposed when debug mode is
// on; the full error is always logged by the caller.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var scoringErr *scoring.ValidationError
	if errors.As(err, &scoringErr) {
		resp := NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, scoringErr.Message).
			WithFields(scoringErr.Fields)
		writeErrorResponse(w, r, http.StatusBadRequest, resp)
		return
	}

	var authErr *auth.ValidationError
	if errors.As(err, &authErr) {
		resp := NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, "invalid input").
			WithFields(authErr.Fields)
		writeErrorResponse(w, r, http.StatusBadRequest, resp)
		return
	}

	if errors.Is(err, model.ErrModelUnavailable) {
		writeErrorResponse(w, r, http.StatusServiceUnavailable,
			NewErrorResponse(http.StatusServiceUnavailable, ErrCodeModelUnavailable,
				"model not loaded; retrain or reload the model"))
		return
	}

	msg := "internal error"
	if s.debug {
		msg = err.Error()
	}
	writeErrorResponse(w, r, http.StatusInternalServerError,
		NewErrorResponse(http.StatusInternalServerError, ErrCodeInternal, msg))
}
