package errors

import (
	"errors"
	"net/http"
)

// APIError is the error shape every HTTP endpoint returns, wrapped as
// {"error": {...}}.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error for logging. The cause is never
// serialized.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// Envelope is the JSON body written for e.
func (e *APIError) Envelope() map[string]interface{} {
	body := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return map[string]interface{}{"error": body}
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// As extracts an *APIError from err, or wraps err as an internal error.
func As(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("").WithCause(err)
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func InvalidJSON() *APIError {
	return BadRequest("invalid_json", "invalid request body")
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

func Unavailable(message string) *APIError {
	if message == "" {
		message = "service unavailable"
	}
	return New(http.StatusServiceUnavailable, "unavailable", message)
}
