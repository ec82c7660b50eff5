package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/soddle/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidStage      = "INVALID_STAGE"
	CodeInvalidWindow     = "INVALID_WINDOW"
	CodeInvalidGuess      = "INVALID_GUESS"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeNoActiveSession   = "NO_ACTIVE_SESSION"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeProfileNotFound   = "PROFILE_NOT_FOUND"
	CodeCatalogNotLoaded  = "CATALOG_NOT_LOADED"
	CodeNotFound          = "NOT_FOUND"
	CodeStageCompleted    = "STAGE_COMPLETED"
	CodeCommitConflict    = "COMMIT_CONFLICT"
	CodeConflict          = "CONFLICT"
	CodeLedgerUnavailable = "LEDGER_UNAVAILABLE"
	CodeUpstreamFailure   = "UPSTREAM_FAILURE"
	CodeStorageFailure    = "STORAGE_FAILURE"
	CodeInternalError     = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError. Specific errors get their
// own code; anything else falls back to its kind.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Specific errors
	case errors.Is(err, model.ErrInvalidStage):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStage, "Stage must be 1 or 2"}}
	case errors.Is(err, model.ErrInvalidWindow):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidWindow, "Window must be one of daily, weekly, monthly, yesterday, alltime"}}
	case errors.Is(err, model.ErrInvalidGuess):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGuess, "Malformed guess"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrNoActiveSession):
		return &httpError{http.StatusNotFound, APIError{CodeNoActiveSession, "No active session"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}
	case errors.Is(err, model.ErrCatalogNotLoaded):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeCatalogNotLoaded, "Profile catalog is not loaded"}}
	case errors.Is(err, model.ErrStageCompleted):
		return &httpError{http.StatusConflict, APIError{CodeStageCompleted, "Stage is already completed"}}
	case errors.Is(err, model.ErrCommitConflict):
		return &httpError{http.StatusConflict, APIError{CodeCommitConflict, "Too many concurrent updates, try again"}}
	case errors.Is(err, model.ErrLedgerUnavailable):
		return &httpError{http.StatusBadGateway, APIError{CodeLedgerUnavailable, "Ledger is unavailable"}}

	// Kinds
	case errors.Is(err, model.ErrInvalidInput):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
	case errors.Is(err, model.ErrConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Conflict"}}
	case errors.Is(err, model.ErrExternalDependency):
		return &httpError{http.StatusBadGateway, APIError{CodeUpstreamFailure, "Upstream dependency failed"}}
	case errors.Is(err, model.ErrStorage):
		return &httpError{http.StatusInternalServerError, APIError{CodeStorageFailure, "Storage failure"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
