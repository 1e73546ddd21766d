package httpserver

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/adapter/metrics"
	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/config"
	"github.com/EllaFerreira/ai-journal-bot/web"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const readHeaderTimeout = 10 * time.Second

type appService interface {
	Analyze(ctx context.Context, text string) (*domain.Reflection, error)
	Ready() bool
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	static       fs.FS
	healthChecks []HealthCheck

	httpMetrics    echo.MiddlewareFunc
	metricsHandler http.Handler

	clock     clockwork.Clock
	startTime time.Time
}

// NewServer wires the journal routes. reg may be nil, in which case neither
// HTTP metrics nor /metrics are registered.
func NewServer(cfg *config.Config, app appService, reg *prometheus.Registry, healthChecks []HealthCheck, clock clockwork.Clock) (*Server, error) {
	static, err := fs.Sub(web.StaticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static files: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = readHeaderTimeout

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		static:       static,
		healthChecks: healthChecks,
		clock:        clock,
		startTime:    clock.Now(),
	}

	if reg != nil {
		srv.httpMetrics = metrics.NewHTTPMetrics(reg).Middleware()
		srv.metricsHandler = metrics.Handler(reg)
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.config.Addr())
	if err := s.echo.Start(s.config.Addr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
