package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/config"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// --- Mock implementations ---

type mockAppService struct {
	analyzeFn func(ctx context.Context, text string) (*domain.Reflection, error)
	ready     bool
}

func (m *mockAppService) Analyze(ctx context.Context, text string) (*domain.Reflection, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, text)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Ready() bool {
	return m.ready
}

// --- Test helpers ---

var testStatic = fstest.MapFS{
	"index.html": {Data: []byte("<html>Daily Journal Bot</html>")},
	"app.js":     {Data: []byte("console.log('journal');")},
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	clock := clockwork.NewFakeClock()
	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
		},
		app:       app,
		static:    testStatic,
		clock:     clock,
		startTime: clock.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withRateLimit(ratePerSecond float64, burst int) func(*Server) {
	return func(s *Server) {
		s.config.RateLimitPerSecond = ratePerSecond
		s.config.RateLimitBurst = burst
	}
}

func withMetrics(mw echo.MiddlewareFunc, handler http.Handler) func(*Server) {
	return func(s *Server) {
		s.httpMetrics = mw
		s.metricsHandler = handler
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// serve sends req through the full middleware chain.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
