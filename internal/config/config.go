package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	MaxInputChars int
	MaxFileBytes  int64
	MaxNotesChars int

	LLMProvider      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OllamaURL        string
	TextModel        string
	FileModel        string

	PrimaryTemperature float64
	RestyleTemperature float64

	UpstreamTimeoutSeconds   int
	UpstreamRetryMaxAttempts int
	UpstreamBreakerEnabled   bool

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIMaxConnections int
}

// Load reads settings from the environment. When CONFIG_FILE points at a YAML
// file, its keys (named like the environment variables) fill in values the
// environment leaves unset.
func Load() (Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIPort:  src.mustEnv("API_PORT", "8080"),
		LogLevel: src.mustEnv("LOG_LEVEL", "info"),

		MaxInputChars: src.mustEnvInt("MAX_INPUT_CHARS", 100_000),
		MaxFileBytes:  int64(src.mustEnvInt("MAX_FILE_BYTES", 10<<20)),
		MaxNotesChars: src.mustEnvInt("MAX_NOTES_CHARS", 10_000),

		LLMProvider:      strings.ToLower(src.mustEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:     src.mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    src.mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AnthropicAPIKey:  src.mustEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: src.mustEnv("ANTHROPIC_BASE_URL", ""),
		OllamaURL:        src.mustEnv("OLLAMA_URL", "http://localhost:11434"),
		TextModel:        src.mustEnv("LLM_TEXT_MODEL", "gpt-4o-mini"),
		FileModel:        src.mustEnv("LLM_FILE_MODEL", "gpt-4o"),

		PrimaryTemperature: src.mustEnvFloat("PRIMARY_TEMPERATURE", 0.1),
		RestyleTemperature: src.mustEnvFloat("RESTYLE_TEMPERATURE", 0.4),

		UpstreamTimeoutSeconds:   src.mustEnvInt("UPSTREAM_TIMEOUT_SECONDS", 60),
		UpstreamRetryMaxAttempts: src.mustEnvInt("UPSTREAM_RETRY_MAX_ATTEMPTS", 1),
		UpstreamBreakerEnabled:   src.mustEnvBool("UPSTREAM_BREAKER_ENABLED", true),

		APIRateLimitRPS:   src.mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: src.mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:    src.mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIMaxConnections: src.mustEnvInt("API_MAX_CONNECTIONS", 256),
	}, nil
}

type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	src := source{file: map[string]string{}}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return src, fmt.Errorf("config file %s does not exist", path)
		}
		return src, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return src, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for key, value := range raw {
		if value == nil {
			continue
		}
		src.file[strings.ToUpper(strings.TrimSpace(key))] = fmt.Sprint(value)
	}
	return src, nil
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) mustEnv(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) mustEnvInt(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvFloat(key string, fallback float64) float64 {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s source) mustEnvBool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
