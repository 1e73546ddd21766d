package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/EllaFerreira/ai-journal-bot/internal/platform/correlation"
	apperrors "github.com/EllaFerreira/ai-journal-bot/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// attachCorrelationID is the RequestID hook. Upstream IDs that are not UUIDs
// are replaced so the response header and log records always agree.
func attachCorrelationID(c echo.Context, requestID string) {
	id := correlation.Resolve(requestID)
	c.Response().Header().Set(echo.HeaderXRequestID, id)
	ctx := correlation.WithID(c.Request().Context(), id)
	c.SetRequest(c.Request().WithContext(ctx))
}

func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if httpErr, ok := errors.AsType[*echo.HTTPError](err); ok {
				structured, known := fromHTTPError(httpErr)
				if !known {
					return err
				}
				err = structured
			}

			structuredErr := apperrors.AsStructuredError(err)
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// fromHTTPError maps the echo errors a journal client can trigger onto the
// structured body. Router errors such as 404 and 405 stay with echo.
func fromHTTPError(httpErr *echo.HTTPError) (*apperrors.Error, bool) {
	switch httpErr.Code {
	case http.StatusRequestEntityTooLarge:
		return apperrors.TooLargeError(msgBodyTooLarge).WithField("limit", maxBodySize), true
	case http.StatusTooManyRequests:
		return apperrors.RateLimitedError(msgRateLimited), true
	default:
		return nil, false
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"ip", c.RealIP(),
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if err.Cause != nil {
		attrs = append(attrs, "cause", err.Cause)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeTooLarge:
		slog.InfoContext(ctx, "Validation error", attrs...)
	case apperrors.TypeRateLimited:
		slog.WarnContext(ctx, "Rate limit exceeded", attrs...)
	case apperrors.TypeUnavailable:
		slog.WarnContext(ctx, "Service unavailable", attrs...)
	case apperrors.TypeInternal:
		slog.ErrorContext(ctx, "Internal error", attrs...)
	case apperrors.TypeExternal:
		slog.ErrorContext(ctx, "External service error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}
