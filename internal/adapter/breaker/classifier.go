// Package breaker guards a domain.SentimentClassifier with a circuit breaker so a
// failing inference backend is shed quickly instead of tying up every request.
package breaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// StateObserver receives the numeric breaker state on every transition.
type StateObserver func(state float64)

// Classifier decorates another classifier. Only Classify is guarded; Load and
// Close pass straight through.
type Classifier struct {
	next domain.SentimentClassifier
	cb   circuitbreaker.CircuitBreaker[any]
}

var _ domain.SentimentClassifier = (*Classifier)(nil)

// NewBreaker builds the default breaker:
// - WithFailureRateThreshold: 50% failure rate, min 5 requests, 30s rolling window
// - WithDelay: 15s before transitioning from open to half-open
// - WithSuccessThreshold: 1 successful request in half-open to close
func NewBreaker(name string, observe StateObserver) circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.5, 5, 30*time.Second).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", name,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if observe != nil {
				observe(StateToFloat(e.NewState))
			}
		}).
		Build()
}

func New(next domain.SentimentClassifier, cb circuitbreaker.CircuitBreaker[any]) *Classifier {
	return &Classifier{next: next, cb: cb}
}

// StateToFloat maps breaker states to gauge values.
func StateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

func (c *Classifier) Load(ctx context.Context) error {
	return c.next.Load(ctx)
}

// Classify records backend outcomes on the breaker. A caller that gives up
// says nothing about the backend, so those errors are not counted while the
// breaker is closed.
func (c *Classifier) Classify(ctx context.Context, text string) ([]domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.cb.TryAcquirePermit() {
		return nil, fmt.Errorf("classifier circuit breaker open: %w", circuitbreaker.ErrOpen)
	}

	preds, err := c.next.Classify(ctx, text)
	if err != nil {
		if ctx.Err() == nil || c.cb.IsHalfOpen() {
			// A half-open trial must be recorded to hand back its permit.
			c.cb.RecordError(err)
		}
		return nil, err
	}
	c.cb.RecordSuccess()
	return preds, nil
}

func (c *Classifier) Close() error {
	return c.next.Close()
}

// Check is a readiness check that fails while the breaker is open.
func (c *Classifier) Check(_ context.Context) error {
	if c.cb.IsOpen() {
		return fmt.Errorf("classifier circuit breaker open")
	}
	return nil
}
