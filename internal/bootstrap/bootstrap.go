package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/notes-transformer/internal/config"
	"github.com/kirillkom/notes-transformer/internal/core/domain"
	"github.com/kirillkom/notes-transformer/internal/core/ports"
	"github.com/kirillkom/notes-transformer/internal/core/usecase"
	"github.com/kirillkom/notes-transformer/internal/infrastructure/extractor"
	"github.com/kirillkom/notes-transformer/internal/infrastructure/llm"
	"github.com/kirillkom/notes-transformer/internal/infrastructure/resilience"
	"github.com/kirillkom/notes-transformer/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Metrics     *metrics.HTTPServerMetrics
	Transformer ports.Transformer
}

// New wires the transform pipeline. A missing provider key is not fatal: the
// server starts and every transform request reports the misconfiguration.
func New(cfg config.Config, service string) (*App, error) {
	generator, err := llm.NewGenerator(llm.ProviderConfig{
		Provider:         cfg.LLMProvider,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
		AnthropicBaseURL: cfg.AnthropicBaseURL,
		OllamaURL:        cfg.OllamaURL,
		HTTPClient:       &http.Client{},
	})
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		slog.Warn("llm_provider_not_configured", "provider", cfg.LLMProvider, "error", err)
		generator = nil
	case err != nil:
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	exec := resilience.NewExecutor(resilience.Config{
		AttemptTimeout:   time.Duration(cfg.UpstreamTimeoutSeconds) * time.Second,
		RetryMaxAttempts: cfg.UpstreamRetryMaxAttempts,
		BreakerEnabled:   cfg.UpstreamBreakerEnabled,
	})

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	transformUC := usecase.NewTransformUseCase(
		resilience.Guard(generator, exec),
		extractor.New(),
		httpMetrics.TransformObserver(service),
		usecase.TransformOptions{
			Limits: domain.Limits{
				MaxInputChars: cfg.MaxInputChars,
				MaxFileBytes:  cfg.MaxFileBytes,
				MaxNotesChars: cfg.MaxNotesChars,
			},
			TextModel:          cfg.TextModel,
			FileModel:          cfg.FileModel,
			PrimaryTemperature: cfg.PrimaryTemperature,
			RestyleTemperature: cfg.RestyleTemperature,
		},
	)

	return &App{
		Config:      cfg,
		Metrics:     httpMetrics,
		Transformer: transformUC,
	}, nil
}
