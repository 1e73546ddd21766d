package httpserver

import (
	"fmt"
	"net/http"

	"github.com/EllaFerreira/ai-journal-bot/internal/platform/version"
	"github.com/labstack/echo/v4"
)

type apiInfo struct {
	Message     string            `json:"message"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Endpoints   map[string]string `json:"endpoints"`
	Usage       string            `json:"usage"`
}

func (s *Server) registerPageRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.StaticFS("/static", s.static)
	s.echo.GET("/api", s.handleAPIInfo)
}

func (s *Server) handleIndex(c echo.Context) error {
	f, err := s.static.Open("index.html")
	if err != nil {
		return fmt.Errorf("failed to open index page: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file
	return c.Stream(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, f)
}

func (s *Server) handleAPIInfo(c echo.Context) error {
	info := apiInfo{
		Message:     version.Name + " API",
		Description: "An AI-powered journal bot that analyzes your day and provides friendly reflections",
		Version:     version.Version,
		Endpoints: map[string]string{
			"POST /journal":     "Submit a journal entry for sentiment analysis",
			"GET /health":       "Check API health status",
			"GET /health/live":  "Liveness probe",
			"GET /health/ready": "Readiness probe",
			"GET /version":      "Build information",
			"GET /metrics":      "Prometheus metrics",
			"GET /":             "Web interface",
		},
		Usage: `Send a POST request to /journal with JSON: {"text": "Your journal entry here"}`,
	}
	if err := c.JSON(http.StatusOK, info); err != nil {
		return fmt.Errorf("failed to write api info: %w", err)
	}
	return nil
}
