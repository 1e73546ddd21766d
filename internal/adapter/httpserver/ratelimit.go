package httpserver

import (
	"time"

	apperrors "github.com/EllaFerreira/ai-journal-bot/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	rateLimiterExpiry = 5 * time.Minute
	msgRateLimited    = "Too many journal entries, please slow down."
)

// newRateLimiter limits journal submissions per client IP. Denied requests
// surface as a rate_limited error so ErrorHandlingMiddleware writes and logs
// them like every other rejection.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(echo.Context, string, error) error {
			return apperrors.RateLimitedError(msgRateLimited)
		},
	})
}
