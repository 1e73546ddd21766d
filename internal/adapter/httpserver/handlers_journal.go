package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/EllaFerreira/ai-journal-bot/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const (
	msgInvalidBody  = `Request body must be JSON of the form {"text": "..."}.`
	msgBodyTooLarge = "Request body is too large."
)

type journalRequest struct {
	Text string `json:"text"`
}

func (s *Server) registerJournalRoutes() {
	limiter := newRateLimiter(s.config.RateLimitPerSecond, s.config.RateLimitBurst)
	s.echo.POST("/journal", s.handleJournal, limiter)
}

func (s *Server) handleJournal(c echo.Context) error {
	var req journalRequest
	if err := c.Bind(&req); err != nil {
		// BodyLimit reports oversized streamed bodies through the reader.
		if httpErr, ok := errors.AsType[*echo.HTTPError](err); ok && httpErr.Code == http.StatusRequestEntityTooLarge {
			return httpErr
		}
		return apperrors.ValidationError(msgInvalidBody)
	}

	result, err := s.app.Analyze(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
