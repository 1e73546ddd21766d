package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EllaFerreira/ai-journal-bot/internal/adapter/breaker"
	"github.com/EllaFerreira/ai-journal-bot/internal/adapter/httpserver"
	"github.com/EllaFerreira/ai-journal-bot/internal/adapter/huggingface"
	"github.com/EllaFerreira/ai-journal-bot/internal/adapter/metrics"
	"github.com/EllaFerreira/ai-journal-bot/internal/adapter/openai"
	"github.com/EllaFerreira/ai-journal-bot/internal/app"
	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/config"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/logging"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/retry"
	"github.com/EllaFerreira/ai-journal-bot/internal/platform/version"
	"github.com/EllaFerreira/ai-journal-bot/internal/reflection"
	"github.com/jonboulle/clockwork"
)

const (
	shutdownTimeout = 10 * time.Second
	maxLoadBackoff  = 30 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func loadPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts:    cfg.ModelLoadAttempts,
		InitialBackoff: cfg.ModelLoadBackoff,
		MaxBackoff:     maxLoadBackoff,
	}
}

func setupClassifier(cfg *config.Config) (domain.SentimentClassifier, error) {
	switch cfg.ClassifierBackend {
	case config.BackendOpenAI:
		c, err := openai.New(openai.Options{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			Timeout:    cfg.ClassifierTimeout,
			LoadPolicy: loadPolicy(cfg),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai classifier: %w", err)
		}
		return c, nil
	case config.BackendHuggingFace:
		return huggingface.New(huggingface.Options{
			BaseURL:    cfg.HuggingFaceAPIURL,
			Model:      cfg.HuggingFaceModel,
			Token:      cfg.HuggingFaceToken,
			Timeout:    cfg.ClassifierTimeout,
			LoadPolicy: loadPolicy(cfg),
		}), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.ClassifierBackend)
	}
}

func setupPolicy(cfg *config.Config) (*reflection.Policy, error) {
	pick, err := reflection.PickerFor(cfg.ReflectionSelection)
	if err != nil {
		return nil, fmt.Errorf("invalid reflection selection: %w", err)
	}
	table := reflection.DefaultTable
	if cfg.ReflectionsFile != "" {
		table, err = reflection.LoadTable(cfg.ReflectionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load reflection table: %w", err)
		}
		slog.Info("Loaded reflection table", "path", cfg.ReflectionsFile)
	}
	return reflection.NewPolicy(table, pick), nil
}

// serve owns the classifier from load to release. A model that fails to load
// aborts startup.
func serve(cfg *config.Config, backend domain.SentimentClassifier, policy *reflection.Policy, clock clockwork.Clock, listen func(*httpserver.Server) error) error {
	reg := metrics.NewRegistry()
	journalMetrics := metrics.NewJournalMetrics(reg)

	guarded := breaker.New(backend, breaker.NewBreaker("classifier", journalMetrics.SetBreakerState))

	appSvc := app.NewService(guarded, policy, journalMetrics, clock)
	defer func() {
		if err := appSvc.Close(); err != nil {
			slog.Error("Failed to release classifier", "error", err)
		}
	}()

	if err := appSvc.Start(context.Background()); err != nil {
		return err
	}

	healthChecks := []httpserver.HealthCheck{
		{Name: "sentiment_model", Check: appSvc.CheckModel},
		{Name: "classifier_breaker", Check: guarded.Check},
	}

	srv, err := httpserver.NewServer(cfg, appSvc, reg, healthChecks, clock)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return listen(srv)
}

func listenAndServe(srv *httpserver.Server) error {
	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	return nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"name", version.Name,
		"version", version.Version,
		"env", cfg.AppEnv,
		"backend", cfg.ClassifierBackend,
	)

	policy, err := setupPolicy(cfg)
	if err != nil {
		return err
	}

	backend, err := setupClassifier(cfg)
	if err != nil {
		return err
	}

	return serve(cfg, backend, policy, clockwork.NewRealClock(), listenAndServe)
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application stopped", "error", err)
		os.Exit(1)
	}
}
