package metrics

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes, derived from the response status.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeTooLarge    = "too_large"
	OutcomeRateLimited = "rate_limited"
	OutcomeNotFound    = "not_found"
	OutcomeFailed      = "failed"
)

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// HTTPMetrics tracks requests by route and outcome. Probe, scrape and static
// asset traffic is not recorded.
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	BodyBytes       *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics on the given registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds, by route and outcome.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "outcome"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests, by method, route and outcome.",
		}, []string{"method", "route", "outcome"}),
		BodyBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_body_bytes",
			Help:      "Declared size of request bodies in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 6),
		}, []string{"route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being processed.",
		}),
	}

	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.BodyBytes, m.InFlight)
	return m
}

// Outcome buckets a response status into a low-cardinality label.
func Outcome(status int) string {
	switch {
	case status == http.StatusRequestEntityTooLarge:
		return OutcomeTooLarge
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		return OutcomeNotFound
	case status >= http.StatusInternalServerError:
		return OutcomeFailed
	case status >= http.StatusBadRequest:
		return OutcomeRejected
	default:
		return OutcomeOK
	}
}

func skipPath(path string) bool {
	return path == "/metrics" || path == "/health" ||
		strings.HasPrefix(path, "/health/") || strings.HasPrefix(path, "/static")
}

// Middleware returns an Echo middleware that records HTTP metrics. It must
// run outside ErrorHandlingMiddleware so the written status is final.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if skipPath(route) {
				return next(c)
			}
			if route == "" || route == "/*" {
				route = unmatchedRoute
			}

			m.InFlight.Inc()
			defer m.InFlight.Dec()

			if n := c.Request().ContentLength; n > 0 {
				m.BodyBytes.WithLabelValues(route).Observe(float64(n))
			}

			var status int
			timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
				outcome := Outcome(status)
				m.RequestDuration.WithLabelValues(route, outcome).Observe(v)
				m.RequestsTotal.WithLabelValues(c.Request().Method, route, outcome).Inc()
			}))

			err := next(c)
			status = c.Response().Status
			// Router errors are written by echo after the chain returns.
			if httpErr, ok := errors.AsType[*echo.HTTPError](err); ok && !c.Response().Committed {
				status = httpErr.Code
			}
			timer.ObserveDuration()
			return err
		}
	}
}
