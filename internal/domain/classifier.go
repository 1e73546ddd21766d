package domain

import "context"

// SentimentClassifier is the external model capability.
//
// Load is called exactly once before any Classify call. Classify must be safe for
// concurrent use and returns one Prediction per label the model knows. Close releases
// whatever Load acquired.
type SentimentClassifier interface {
	Load(ctx context.Context) error
	Classify(ctx context.Context, text string) ([]Prediction, error)
	Close() error
}
