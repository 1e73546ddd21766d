package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletion(content string) string {
	quoted, _ := json.Marshal(content)
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"finish_reason":"stop","logprobs":null,` +
		`"message":{"role":"assistant","refusal":null,"content":` + string(quoted) + `}}]}`
}

func newTestClassifier(t *testing.T, mux *http.ServeMux) *Classifier {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL + "/",
		Timeout: 2 * time.Second,
		LoadPolicy: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	return c
}

func TestVerdictSchema_Strict(t *testing.T) {
	schema, err := verdictSchema()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []any{"label", "score"}, schema["required"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	label, ok := props["label"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"POSITIVE", "NEGATIVE"}, label["enum"])
}

func TestClassify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		format, _ := body["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion(`{"label":"NEGATIVE","score":0.6}`)))
	})
	c := newTestClassifier(t, mux)

	preds, err := c.Classify(context.Background(), "Nothing went right today.")
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, domain.Prediction{Label: "NEGATIVE", Score: 0.6}, preds[0])
	assert.Equal(t, "POSITIVE", preds[1].Label)
	assert.InDelta(t, 0.4, preds[1].Score, 1e-9)
}

func TestClassify_InvalidVerdict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion(`{"label":"NEUTRAL","score":0.9}`)))
	})
	c := newTestClassifier(t, mux)

	_, err := c.Classify(context.Background(), "meh")
	assert.ErrorIs(t, err, domain.ErrUnknownLabel)
}

func TestClassify_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})
	c := newTestClassifier(t, mux)

	_, err := c.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestLoad_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/models/gpt-4o-mini", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}`))
	})
	c := newTestClassifier(t, mux)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoad_UnauthorizedIsPermanent(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/models/gpt-4o-mini", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})
	c := newTestClassifier(t, mux)

	err := c.Load(context.Background())
	var permErr *retry.PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExpand(t *testing.T) {
	preds, err := expand(verdict{Label: "POSITIVE", Score: 0.95})
	require.NoError(t, err)
	assert.Equal(t, "POSITIVE", preds[0].Label)
	assert.Equal(t, "NEGATIVE", preds[1].Label)

	_, err = expand(verdict{Label: "POSITIVE", Score: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)
}

func TestClose(t *testing.T) {
	c := newTestClassifier(t, http.NewServeMux())
	require.NoError(t, c.Close())

	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrClassifierClosed)
}
