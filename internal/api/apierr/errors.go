package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cashflowgame/server/internal/model"
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
	CodeUnauthorized      = "UNAUTHORIZED"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeRecipientNotFound = "RECIPIENT_NOT_FOUND"
	CodeActionNotFound    = "ACTION_NOT_FOUND"
	CodeUnknownAction     = "UNKNOWN_ACTION"
	CodeMalformedDetails  = "MALFORMED_DETAILS"
	CodeInvalidDetails    = "INVALID_DETAILS"
	CodeAssetNotFound     = "ASSET_NOT_FOUND"
	CodeLiabilityNotFound = "LIABILITY_NOT_FOUND"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
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

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRecipientNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRecipientNotFound, "Recipient not found"}}
	case errors.Is(err, model.ErrActionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeActionNotFound, "Pending action not found"}}
	case errors.Is(err, model.ErrUnknownActionKind):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownAction, "Unknown action kind"}}
	case errors.Is(err, model.ErrMalformedDetails):
		return &httpError{http.StatusBadRequest, APIError{CodeMalformedDetails, "Malformed action details"}}
	case errors.Is(err, model.ErrInvalidDetails):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDetails, "Invalid action details"}}
	case errors.Is(err, model.ErrAssetNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAssetNotFound, "Asset not found"}}
	case errors.Is(err, model.ErrLiabilityNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeLiabilityNotFound, "Liability not found"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientFunds, "Insufficient funds"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
