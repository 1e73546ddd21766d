// Package retry runs an operation until it succeeds, fails permanently, or runs
// out of attempts. It backs off exponentially between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, use normal backoff
	After               // remote asked us to wait, honour its hint
)

type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// MaxBackoff caps both the exponential backoff and any server hint. Zero means no cap.
	MaxBackoff time.Duration
	OnRetry    func(attempt int, err error, backoff time.Duration)
}

// WaitHinter is implemented by errors that know how long the remote wants us to wait,
// e.g. an inference endpoint reporting the estimated time until a model is loaded.
type WaitHinter interface {
	error
	WaitHint() time.Duration
}

type Classify func(err error) Action
type Operation[T any] func(ctx context.Context) (T, error)

func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, errors.New("retry: MaxAttempts must be >= 1")
	}

	backoff := p.InitialBackoff
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt == p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		wait := backoff
		if action == After {
			if h, ok := errors.AsType[WaitHinter](err); ok && h.WaitHint() > 0 {
				wait = h.WaitHint()
			}
		}
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			backoff *= 2
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

func DoVoid(ctx context.Context, p Policy, classify Classify, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, classify, func(ctx context.Context) (struct{}, error) { return struct{}{}, op(ctx) })
	return err
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
