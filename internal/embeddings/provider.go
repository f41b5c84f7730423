// Package embeddings provides text embedding providers plus the cache and
// batching helpers used by the embedding-based ranker.
package embeddings

import (
	"context"
	"fmt"
	"strings"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider names accepted by NewFromConfig.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults per provider.
const (
	DefaultOpenAIModel   = "text-embedding-3-small"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIDim     = 1536
	DefaultGeminiModel   = "text-embedding-004"
	DefaultGeminiDim     = 768
)

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Dim      int     // expected vector length; 0 accepts any length
	RPS      float64 // provider requests per second; 0 disables throttling
	Burst    int
}

// Enabled reports whether an embedding provider is configured at all.
func (c *Config) Enabled() bool {
	return c != nil && strings.TrimSpace(c.Provider) != ""
}

// NewFromConfig returns an embeddings provider, wrapped with throttling when
// cfg.RPS is positive. A config without a provider is an error; callers check
// Enabled first when embeddings are optional.
func NewFromConfig(ctx context.Context, cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("embeddings provider is not configured")
	}

	var (
		p   Provider
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		p = NewOpenAI(cfg)
	case ProviderGemini:
		p, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RPS > 0 {
		p = Throttled(p, cfg.RPS, cfg.Burst)
	}
	return p, nil
}

// ProviderError wraps a failure returned by an embedding backend.
type ProviderError struct {
	Model   string
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding provider %s: %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("embedding provider %s: %s", e.Model, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// DimensionError reports a vector whose length differs from the configured one.
type DimensionError struct {
	Model    string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding provider %s: expected %d dimensions, got %d", e.Model, e.Expected, e.Got)
}

// checkDim validates vec against expected (0 disables the check).
func checkDim(model string, expected int, vec []float32) error {
	if expected > 0 && len(vec) != expected {
		return &DimensionError{Model: model, Expected: expected, Got: len(vec)}
	}
	return nil
}
