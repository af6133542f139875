// Package apierror provides typed JSON error responses for the memoria API.
//
// Errors are written as a flat JSON object whose "error" field carries the
// human-readable message, e.g. {"error":"Invalid memory ID","type":"invalid_request"}.
package apierror

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Type constants classify errors for clients.
const (
	TypeInvalidRequest = "invalid_request"
	TypeNotFound       = "not_found"
	TypeRateLimit      = "rate_limit"
	TypeTooLarge       = "payload_too_large"
	TypeServer         = "server_error"
)

// Error is an API error with the HTTP status it maps to.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Write sends an Error as a JSON HTTP response.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)

	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		slog.Error("failed to encode error response", "err", encErr)
	}
}

// InvalidRequest returns a 400 error for malformed requests.
func InvalidRequest(msg string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: msg,
		Type:    TypeInvalidRequest,
	}
}

// InvalidID returns a 400 error for a path id that is not an integer.
func InvalidID() *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: "Invalid memory ID",
		Type:    TypeInvalidRequest,
		Code:    "invalid_id",
	}
}

// NotFound returns a 404 error.
func NotFound(msg string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Message: msg,
		Type:    TypeNotFound,
	}
}

// RateLimited returns a 429 error when rate limits are exceeded.
func RateLimited() *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Message: "Rate limit exceeded. Please retry after a brief wait.",
		Type:    TypeRateLimit,
		Code:    "rate_limit_exceeded",
	}
}

// PayloadTooLarge returns a 413 error for oversized request bodies.
func PayloadTooLarge() *Error {
	return &Error{
		Status:  http.StatusRequestEntityTooLarge,
		Message: "Request body too large.",
		Type:    TypeTooLarge,
	}
}

// Internal returns a 500 error for unexpected server failures.
func Internal(msg string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: msg,
		Type:    TypeServer,
	}
}
