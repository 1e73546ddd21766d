// Package huggingface implements domain.SentimentClassifier on top of the
// Hugging Face Inference API text-classification task.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/retry"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "distilbert-base-uncased-finetuned-sst-2-english"

	maxResponseBytes = 1 << 20
	warmupText       = "Loading the journal model."
)

type Options struct {
	BaseURL string
	Model   string
	Token   string
	Timeout time.Duration
	// LoadPolicy controls how long Load keeps polling while the hosted model warms up.
	LoadPolicy retry.Policy
}

type Client struct {
	endpoint   string
	token      string
	http       *http.Client
	loadPolicy retry.Policy
	closed     atomic.Bool
}

var _ domain.SentimentClassifier = (*Client)(nil)

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	policy := opts.LoadPolicy
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	return &Client{
		endpoint:   base + "/models/" + model,
		token:      opts.Token,
		http:       &http.Client{Timeout: timeout},
		loadPolicy: policy,
	}
}

// StatusError is a non-2xx answer from the inference API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("huggingface returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("huggingface returned status %d: %s", e.StatusCode, e.Message)
}

// ModelLoadingError is returned while the hosted model is still being loaded (HTTP 503).
type ModelLoadingError struct {
	StatusError
	EstimatedTime time.Duration
}

func (e *ModelLoadingError) WaitHint() time.Duration { return e.EstimatedTime }

// Load issues warm-up requests until the model answers, following LoadPolicy.
func (c *Client) Load(ctx context.Context) error {
	policy := c.loadPolicy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Sentiment model not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}

	err := retry.DoVoid(ctx, policy, classifyLoadError, func(ctx context.Context) error {
		_, err := c.Classify(ctx, warmupText)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to load huggingface model: %w", err)
	}
	return nil
}

func classifyLoadError(err error) retry.Action {
	if _, ok := errors.AsType[*ModelLoadingError](err); ok {
		return retry.After
	}
	if se, ok := errors.AsType[*StatusError](err); ok {
		switch {
		case se.StatusCode == http.StatusTooManyRequests, se.StatusCode >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type errorBody struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Classify returns one prediction per model label.
func (c *Client) Classify(ctx context.Context, text string) ([]domain.Prediction, error) {
	if c.closed.Load() {
		return nil, domain.ErrClassifierClosed
	}

	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute inference request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, raw)
	}

	return decodePredictions(raw)
}

// Close stops the client from issuing further requests.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

func statusError(code int, raw []byte) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	se := StatusError{StatusCode: code, Message: eb.Error}
	if code == http.StatusServiceUnavailable {
		return &ModelLoadingError{
			StatusError:   se,
			EstimatedTime: time.Duration(eb.EstimatedTime * float64(time.Second)),
		}
	}
	return &se
}

// decodePredictions accepts both the batched [[...]] and the flat [...] shapes.
func decodePredictions(raw []byte) ([]domain.Prediction, error) {
	var batched [][]prediction
	if err := json.Unmarshal(raw, &batched); err == nil {
		if len(batched) == 0 {
			return nil, domain.ErrEmptyPrediction
		}
		return toDomain(batched[0])
	}

	var flat []prediction
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}
	return toDomain(flat)
}

func toDomain(preds []prediction) ([]domain.Prediction, error) {
	if len(preds) == 0 {
		return nil, domain.ErrEmptyPrediction
	}
	out := make([]domain.Prediction, len(preds))
	for i, p := range preds {
		out[i] = domain.Prediction{Label: p.Label, Score: p.Score}
	}
	return out, nil
}
