package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	apperrors "github.com/EllaFerreira/ai-journal-bot/internal/platform/errors"
	"github.com/EllaFerreira/ai-journal-bot/internal/reflection"
	"github.com/jonboulle/clockwork"
)

const previewLength = 50

// Client-facing messages. Adapter details never appear in them.
const (
	MsgModelNotLoaded = "Sentiment analysis model not loaded. Please try again later."
	MsgEmptyEntry     = "Journal entry cannot be empty."
	MsgEntryTooLong   = "Journal entry is too long. Please keep it under 1000 characters."
	MsgAnalysisFailed = "An error occurred while analyzing your journal entry. Please try again."
)

// Failure reasons reported to the Recorder.
const (
	reasonNotReady   = "not_ready"
	reasonEmpty      = "empty"
	reasonTooLong    = "too_long"
	reasonClassifier = "classifier"
	reasonMalformed  = "malformed_output"
)

// Recorder receives analysis telemetry. Implemented by the metrics adapter.
type Recorder interface {
	ObserveAnalysis(sentiment, bucket string)
	ObserveFailure(reason string)
	ObserveClassifierCall(d time.Duration, err error)
	SetModelReady(ready bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveAnalysis(string, string)             {}
func (noopRecorder) ObserveFailure(string)                      {}
func (noopRecorder) ObserveClassifierCall(time.Duration, error) {}
func (noopRecorder) SetModelReady(bool)                         {}

// Service is the application context handed to the HTTP layer. It is the only
// owner of the classifier and its readiness flag.
type Service struct {
	classifier domain.SentimentClassifier
	policy     *reflection.Policy
	recorder   Recorder
	clock      clockwork.Clock

	ready     atomic.Bool
	startOnce sync.Once
	startErr  error
}

// NewService creates the application service. recorder may be nil.
func NewService(classifier domain.SentimentClassifier, policy *reflection.Policy, recorder Recorder, clock clockwork.Clock) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		classifier: classifier,
		policy:     policy,
		recorder:   recorder,
		clock:      clock,
	}
}

// Start loads the classifier. Only the first call does any work; later calls
// return the first call's result.
func (s *Service) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		slog.Info("Loading sentiment analysis model...")
		started := s.clock.Now()
		if err := s.classifier.Load(ctx); err != nil {
			s.startErr = fmt.Errorf("failed to load sentiment analysis model: %w", err)
			slog.Error("Failed to load sentiment analysis model", "error", err)
			return
		}
		s.ready.Store(true)
		s.recorder.SetModelReady(true)
		slog.Info("Sentiment analysis model loaded", "duration", s.clock.Since(started))
	})
	return s.startErr
}

// Ready reports whether the classifier has been loaded and not yet released.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// CheckModel is a health check that fails until the classifier is ready.
func (s *Service) CheckModel(_ context.Context) error {
	if !s.Ready() {
		return fmt.Errorf("sentiment model not loaded")
	}
	return nil
}

// Close clears the readiness flag and releases the classifier.
func (s *Service) Close() error {
	s.ready.Store(false)
	s.recorder.SetModelReady(false)
	slog.Info("Shutting down sentiment analysis model")
	if err := s.classifier.Close(); err != nil {
		return fmt.Errorf("failed to close classifier: %w", err)
	}
	return nil
}

// Analyze validates a journal entry, classifies it and picks a reflection.
// Errors are *apperrors.Error: validation for bad input, unavailable before
// Start succeeds, internal for any classifier failure.
func (s *Service) Analyze(ctx context.Context, text string) (*domain.Reflection, error) {
	if !s.Ready() {
		s.recorder.ObserveFailure(reasonNotReady)
		return nil, apperrors.UnavailableError(MsgModelNotLoaded)
	}
	if strings.TrimSpace(text) == "" {
		s.recorder.ObserveFailure(reasonEmpty)
		return nil, apperrors.ValidationError(MsgEmptyEntry)
	}
	if n := utf8.RuneCountInString(text); n > domain.MaxEntryLength {
		s.recorder.ObserveFailure(reasonTooLong)
		return nil, apperrors.ValidationError(MsgEntryTooLong).WithField("length", n)
	}

	slog.InfoContext(ctx, "Analyzing journal entry", "preview", preview(text))

	started := s.clock.Now()
	preds, err := s.classifier.Classify(ctx, text)
	s.recorder.ObserveClassifierCall(s.clock.Since(started), err)
	if err != nil {
		s.recorder.ObserveFailure(reasonClassifier)
		return nil, apperrors.InternalError(MsgAnalysisFailed, err)
	}

	best, err := bestPrediction(preds)
	if err != nil {
		s.recorder.ObserveFailure(reasonMalformed)
		return nil, apperrors.InternalError(MsgAnalysisFailed, err)
	}

	message, emoji, err := s.policy.Select(best.Label, best.Confidence)
	if err != nil {
		s.recorder.ObserveFailure(reasonMalformed)
		return nil, apperrors.InternalError(MsgAnalysisFailed, err)
	}

	s.recorder.ObserveAnalysis(string(best.Label), string(reflection.BucketFor(best.Confidence)))
	slog.InfoContext(ctx, "Analysis complete", "sentiment", best.Label, "confidence", fmt.Sprintf("%.2f", best.Confidence))

	return &domain.Reflection{
		Sentiment:  best.Label,
		Confidence: best.Confidence,
		Reflection: message,
		Emoji:      emoji,
	}, nil
}

// bestPrediction returns the highest-scoring prediction. Ties keep the earlier one.
// Every prediction must carry a known label and a score in [0, 1].
func bestPrediction(preds []domain.Prediction) (domain.Classification, error) {
	if len(preds) == 0 {
		return domain.Classification{}, domain.ErrEmptyPrediction
	}

	var best domain.Classification
	for i, p := range preds {
		label, err := domain.ParseLabel(p.Label)
		if err != nil {
			return domain.Classification{}, err
		}
		if math.IsNaN(p.Score) || p.Score < 0 || p.Score > 1 {
			return domain.Classification{}, fmt.Errorf("%w: %v", domain.ErrInvalidScore, p.Score)
		}
		if i == 0 || p.Score > best.Confidence {
			best = domain.Classification{Label: label, Confidence: p.Score}
		}
	}
	return best, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "..."
}
