package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
	"github.com/kirillkom/notes-transformer/internal/core/ports"
	"github.com/kirillkom/notes-transformer/internal/infrastructure/llm/ollama"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

type ProviderConfig struct {
	Provider         string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OllamaURL        string
	HTTPClient       *http.Client
}

// NewGenerator builds the configured provider. A hosted provider without an
// API key yields ErrNotConfigured so the server can start and report it per
// request.
func NewGenerator(cfg ProviderConfig) (ports.StructuredGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, domain.WrapError(domain.ErrNotConfigured, "new generator", fmt.Errorf("OPENAI_API_KEY is empty"))
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.HTTPClient), nil
	case ProviderAnthropic:
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, domain.WrapError(domain.ErrNotConfigured, "new generator", fmt.Errorf("ANTHROPIC_API_KEY is empty"))
		}
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.HTTPClient), nil
	case ProviderOllama:
		if strings.TrimSpace(cfg.OllamaURL) == "" {
			return nil, domain.WrapError(domain.ErrNotConfigured, "new generator", fmt.Errorf("OLLAMA_URL is empty"))
		}
		return ollama.New(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
}
