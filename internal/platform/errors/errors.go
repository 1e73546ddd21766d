// Package errors provides structured error handling with HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates invalid client input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeUnavailable indicates a dependency that is not ready yet (HTTP 500)
	TypeUnavailable ErrorType = "unavailable"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
	// TypeExternal indicates external service error (HTTP 502)
	TypeExternal ErrorType = "external"
	// TypeTooLarge indicates a request body over the size limit (HTTP 413)
	TypeTooLarge ErrorType = "too_large"
	// TypeRateLimited indicates a client over its request budget (HTTP 429)
	TypeRateLimited ErrorType = "rate_limited"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error type.
// Unavailable maps to 500 rather than 503: clients of the journal endpoint
// treat "model not loaded" the same as any other server failure.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeExternal:
		return http.StatusBadGateway
	case TypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeUnavailable, TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return &Error{
		Type:    TypeValidation,
		Message: message,
		Context: make(map[string]any),
	}
}

// UnavailableError creates a new unavailable error (HTTP 500).
func UnavailableError(message string) *Error {
	return &Error{
		Type:    TypeUnavailable,
		Message: message,
		Context: make(map[string]any),
	}
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{
		Type:    TypeInternal,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// ExternalError creates a new external service error (HTTP 502).
func ExternalError(message string, cause error) *Error {
	return &Error{
		Type:    TypeExternal,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// TooLargeError creates a new request-too-large error (HTTP 413).
func TooLargeError(message string) *Error {
	return &Error{
		Type:    TypeTooLarge,
		Message: message,
		Context: make(map[string]any),
	}
}

// RateLimitedError creates a new rate limit error (HTTP 429).
func RateLimitedError(message string) *Error {
	return &Error{
		Type:    TypeRateLimited,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse. The cause is never included.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error (or wraps one), that error is returned.
// Otherwise it is wrapped as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	if structuredErr, ok := errors.AsType[*Error](err); ok {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
