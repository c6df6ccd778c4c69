package config

import (
	"fmt"
	"net/url"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration for invalid values. It is called by
// Load before the configuration is handed to any component (fail-fast).
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderGoogleAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (must be one of: openai, gemini, ollama)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %g (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxAnswerTokens < 1 || c.MaxAnswerTokens > 32768 {
		return fmt.Errorf("%w: %d (must be in [1, 32768])", ErrInvalidMaxTokens, c.MaxAnswerTokens)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: %d (must be in [1, 100])", ErrInvalidTopK, c.TopK)
	}

	if c.Provider == ProviderOllama {
		if err := validateURL(c.OllamaHost); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOllamaHost, err)
		}
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if err := validateURL(c.Arxiv.BaseURL); err != nil {
		return fmt.Errorf("%w: arxiv: %v", ErrInvalidBaseURL, err)
	}
	if err := validateURL(c.SearXNG.BaseURL); err != nil {
		return fmt.Errorf("%w: searxng: %v", ErrInvalidBaseURL, err)
	}

	if c.Scraper.Parallelism < 1 || c.Scraper.Parallelism > 16 {
		return fmt.Errorf("%w: parallelism %d (must be in [1, 16])", ErrInvalidScraperLimit, c.Scraper.Parallelism)
	}
	if c.Scraper.DelayMs < 0 {
		return fmt.Errorf("%w: delay_ms %d (must be >= 0)", ErrInvalidScraperLimit, c.Scraper.DelayMs)
	}
	if c.Scraper.TimeoutMs < 1 {
		return fmt.Errorf("%w: timeout_ms %d (must be >= 1)", ErrInvalidScraperLimit, c.Scraper.TimeoutMs)
	}

	if c.Ingest.EmbedRatePerSec < 0 {
		return fmt.Errorf("%w: embed_rate_per_sec must be >= 0, got %g", ErrInvalidScraperLimit, c.Ingest.EmbedRatePerSec)
	}

	return nil
}

// validateURL checks that s is an absolute http(s) URL.
func validateURL(s string) error {
	if s == "" {
		return fmt.Errorf("URL is empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parsing URL %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", s)
	}
	return nil
}
