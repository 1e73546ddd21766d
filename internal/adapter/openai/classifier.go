// Package openai implements domain.SentimentClassifier with a chat-completions model
// constrained to a strict JSON-schema verdict.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/retry"
	"github.com/invopop/jsonschema"
	goopenai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = `You are a sentiment classifier for short personal journal entries.
Classify the overall sentiment of the user's entry as POSITIVE or NEGATIVE.
Report score as your confidence in that label, between 0 and 1.`

type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	LoadPolicy retry.Policy
}

type Classifier struct {
	client     goopenai.Client
	model      string
	schema     map[string]any
	loadPolicy retry.Policy
	closed     atomic.Bool
}

var _ domain.SentimentClassifier = (*Classifier)(nil)

// verdict is the structured answer the model must return.
type verdict struct {
	Label string  `json:"label" jsonschema:"enum=POSITIVE,enum=NEGATIVE"`
	Score float64 `json:"score" jsonschema:"minimum=0,maximum=1"`
}

func New(opts Options) (*Classifier, error) {
	schema, err := verdictSchema()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	policy := opts.LoadPolicy
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	return &Classifier{
		client:     goopenai.NewClient(reqOpts...),
		model:      opts.Model,
		schema:     schema,
		loadPolicy: policy,
	}, nil
}

func verdictSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	b, err := reflector.Reflect(&verdict{}).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to build verdict schema: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to decode verdict schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m, nil
}

// Load checks that the configured model is reachable with the given credentials.
func (c *Classifier) Load(ctx context.Context) error {
	policy := c.loadPolicy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("OpenAI model lookup failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}

	err := retry.DoVoid(ctx, policy, classifyLoadError, func(ctx context.Context) error {
		_, err := c.client.Models.Get(ctx, c.model)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to load openai model %q: %w", c.model, err)
	}
	return nil
}

func classifyLoadError(err error) retry.Action {
	apiErr, ok := errors.AsType[*goopenai.Error](err)
	if !ok {
		return retry.Retry
	}
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return retry.After
	case apiErr.StatusCode >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

// Classify asks the model for a verdict and expands it to both labels.
func (c *Classifier) Classify(ctx context.Context, text string) ([]domain.Prediction, error) {
	if c.closed.Load() {
		return nil, domain.ErrClassifierClosed
	}

	resp, err := c.client.Chat.Completions.New(ctx, goopenai.ChatCompletionNewParams{
		Model: goopenai.ChatModel(c.model),
		Messages: []goopenai.ChatCompletionMessageParamUnion{
			goopenai.SystemMessage(systemPrompt),
			goopenai.UserMessage(text),
		},
		Temperature: goopenai.Float(0),
		ResponseFormat: goopenai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &goopenai.ResponseFormatJSONSchemaParam{
				JSONSchema: goopenai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "sentiment_verdict",
					Schema: c.schema,
					Strict: goopenai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.ErrEmptyPrediction
	}

	var v verdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &v); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}

	return expand(v)
}

// expand turns a single-label verdict into one prediction per label.
// The other label receives the complementary score.
func expand(v verdict) ([]domain.Prediction, error) {
	label, err := domain.ParseLabel(v.Label)
	if err != nil {
		return nil, err
	}
	if v.Score < 0 || v.Score > 1 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidScore, v.Score)
	}

	other := domain.LabelNegative
	if label == domain.LabelNegative {
		other = domain.LabelPositive
	}
	return []domain.Prediction{
		{Label: string(label), Score: v.Score},
		{Label: string(other), Score: 1 - v.Score},
	}, nil
}

func (c *Classifier) Close() error {
	c.closed.Store(true)
	return nil
}
