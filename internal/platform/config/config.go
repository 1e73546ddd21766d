package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/reflection"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Classifier backends.
const (
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Host      string `env:"HOST" default:"0.0.0.0"`
	Port      string `env:"PORT" default:"8000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ClassifierBackend string        `env:"CLASSIFIER_BACKEND" default:"huggingface"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" default:"30s"`
	ModelLoadAttempts int           `env:"MODEL_LOAD_ATTEMPTS" default:"5"`
	ModelLoadBackoff  time.Duration `env:"MODEL_LOAD_BACKOFF" default:"2s"`

	HuggingFaceAPIURL string `env:"HUGGINGFACE_API_URL" default:"https://api-inference.huggingface.co"`
	HuggingFaceModel  string `env:"HUGGINGFACE_MODEL" default:"distilbert-base-uncased-finetuned-sst-2-english"`
	HuggingFaceToken  string `env:"HUGGINGFACE_TOKEN"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	ReflectionSelection string `env:"REFLECTION_SELECTION" default:"first"`
	// ReflectionsFile optionally replaces the built-in reflection table with a YAML file.
	ReflectionsFile string `env:"REFLECTIONS_FILE"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"10"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}

	switch cfg.ClassifierBackend {
	case BackendHuggingFace:
		if cfg.HuggingFaceModel == "" {
			return errors.New("HUGGINGFACE_MODEL is required")
		}
	case BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when CLASSIFIER_BACKEND=openai")
		}
	default:
		return fmt.Errorf("CLASSIFIER_BACKEND must be %q or %q, got %q", BackendHuggingFace, BackendOpenAI, cfg.ClassifierBackend)
	}

	if _, err := reflection.PickerFor(cfg.ReflectionSelection); err != nil {
		return fmt.Errorf("REFLECTION_SELECTION: %w", err)
	}

	if cfg.ModelLoadAttempts < 1 {
		return errors.New("MODEL_LOAD_ATTEMPTS must be at least 1")
	}
	if cfg.ClassifierTimeout <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT must be positive")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}

	return nil
}
