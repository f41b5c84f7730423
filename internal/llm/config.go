// Package llm provides the chat-model abstraction used by the LLM-driven
// agent, its Gemini implementation, and helpers for parsing model output.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap structured output such as the turn summary
	TierLite ModelTier = "lite"
	// TierStandard is for the tool-calling conversation
	TierStandard ModelTier = "standard"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one implemented.
const ProviderGemini Provider = "gemini"

// DefaultTemperature keeps tool selection close to deterministic.
const DefaultTemperature float32 = 0.1

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature: DefaultTemperature,
	}
}

// GetModel returns the model name for a given tier, falling back to the
// standard tier and then the lite tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier. An empty
// model leaves the tier unchanged.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	if model != "" {
		newConfig.Models[tier] = model
	}
	return newConfig
}
