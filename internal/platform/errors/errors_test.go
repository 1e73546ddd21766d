package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("Journal entry cannot be empty.")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "Journal entry cannot be empty.", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
}

func TestUnavailableError(t *testing.T) {
	err := UnavailableError("model not loaded")

	assert.Equal(t, TypeUnavailable, err.Type)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "unavailable")
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("inference backend timeout")
	err := InternalError("analysis failed", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "analysis failed")
	assert.Contains(t, err.Error(), "inference backend timeout")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.Nil(t, err.Cause)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestExternalError(t *testing.T) {
	err := ExternalError("failed to call model", errors.New("503"))

	assert.Equal(t, TypeExternal, err.Type)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestTooLargeError(t *testing.T) {
	err := TooLargeError("Request body is too large.")

	assert.Equal(t, TypeTooLarge, err.Type)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusRequestEntityTooLarge, err.HTTPStatus())
}

func TestRateLimitedError(t *testing.T) {
	err := RateLimitedError("Too many journal entries, slow down.")

	assert.Equal(t, TypeRateLimited, err.Type)
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus())
	assert.Equal(t, ErrorResponse{
		Error:   "Too many journal entries, slow down.",
		Type:    TypeRateLimited,
		Context: map[string]any{},
	}, err.ToResponse())
}

func TestWithFieldNilMap(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "test"}

	err = err.WithField("length", 1001)

	require.NotNil(t, err.Context)
	assert.Equal(t, 1001, err.Context["length"])
}

func TestToResponseOmitsCause(t *testing.T) {
	err := InternalError("generic message", errors.New("secret adapter detail"))

	resp := err.ToResponse()

	assert.Equal(t, "generic message", resp.Error)
	assert.Equal(t, TypeInternal, resp.Type)
	assert.NotContains(t, fmt.Sprintf("%+v", resp), "secret adapter detail")
}

func TestErrorsIs(t *testing.T) {
	rootCause := fmt.Errorf("root")
	wrapped := InternalError("wrapped", rootCause)

	assert.ErrorIs(t, wrapped, rootCause)
	assert.Equal(t, rootCause, errors.Unwrap(wrapped))
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured", func(t *testing.T) {
		original := ValidationError("original")
		assert.Same(t, original, AsStructuredError(original))
	})

	t.Run("wrapped structured", func(t *testing.T) {
		original := UnavailableError("not ready")
		result := AsStructuredError(fmt.Errorf("outer: %w", original))
		assert.Same(t, original, result)
	})

	t.Run("standard", func(t *testing.T) {
		original := errors.New("standard error")
		result := AsStructuredError(original)
		assert.Equal(t, TypeInternal, result.Type)
		assert.Equal(t, "internal server error", result.Message)
		assert.Equal(t, original, result.Cause)
	})
}

func TestHTTPStatusAllTypes(t *testing.T) {
	tests := []struct {
		name       string
		errorType  ErrorType
		wantStatus int
	}{
		{"validation", TypeValidation, http.StatusBadRequest},
		{"unavailable", TypeUnavailable, http.StatusInternalServerError},
		{"internal", TypeInternal, http.StatusInternalServerError},
		{"external", TypeExternal, http.StatusBadGateway},
		{"too large", TypeTooLarge, http.StatusRequestEntityTooLarge},
		{"rate limited", TypeRateLimited, http.StatusTooManyRequests},
		{"unknown", ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Type: tt.errorType}
			assert.Equal(t, tt.wantStatus, err.HTTPStatus())
		})
	}
}
