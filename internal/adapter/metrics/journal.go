package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JournalMetrics holds Prometheus metrics for journal analysis and the classifier backend.
type JournalMetrics struct {
	AnalysesTotal      *prometheus.CounterVec
	FailuresTotal      *prometheus.CounterVec
	ClassifierDuration *prometheus.HistogramVec
	ModelReady         prometheus.Gauge
	BreakerState       prometheus.Gauge
}

// NewJournalMetrics creates and registers journal metrics on the given registry.
func NewJournalMetrics(reg prometheus.Registerer) *JournalMetrics {
	factory := promauto.With(reg)
	return &JournalMetrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "analyses_total",
			Help:      "Total number of successful journal analyses, by sentiment and confidence bucket.",
		}, []string{"sentiment", "bucket"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "failures_total",
			Help:      "Total number of rejected or failed journal entries, by reason.",
		}, []string{"reason"}),
		ClassifierDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "request_duration_seconds",
			Help:      "Duration of classifier backend calls in seconds, by outcome.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		ModelReady: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "ready",
			Help:      "1 when the sentiment model is loaded, 0 otherwise.",
		}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "circuit_breaker_state",
			Help:      "Classifier circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}
}

func (m *JournalMetrics) ObserveAnalysis(sentiment, bucket string) {
	m.AnalysesTotal.WithLabelValues(sentiment, bucket).Inc()
}

func (m *JournalMetrics) ObserveFailure(reason string) {
	m.FailuresTotal.WithLabelValues(reason).Inc()
}

func (m *JournalMetrics) ObserveClassifierCall(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ClassifierDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *JournalMetrics) SetModelReady(ready bool) {
	if ready {
		m.ModelReady.Set(1)
		return
	}
	m.ModelReady.Set(0)
}

func (m *JournalMetrics) SetBreakerState(state float64) {
	m.BreakerState.Set(state)
}
