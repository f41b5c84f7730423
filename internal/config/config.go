// Package config loads the service configuration from an optional file and
// SKILLMATCH_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/embeddings"
	"github.com/jonathan/skill-matcher/internal/llm"
	"github.com/jonathan/skill-matcher/internal/tools"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SKILLMATCH_EMBEDDINGS_PROVIDER for embeddings.provider.
const EnvPrefix = "SKILLMATCH"

// Defaults applied by ApplyDefaults.
const (
	DefaultPort                  = 8080
	DefaultEmbeddingsConcurrency = 5
	DefaultRateLimitRPS          = 5
	DefaultRateLimitBurst        = 10
	MinApprovalTTL               = time.Hour
)

// Config is the resolved service configuration.
type Config struct {
	DatabaseURL   string `mapstructure:"database-url"`
	DirectoryFile string `mapstructure:"directory-file"`

	LLM        LLMConfig        `mapstructure:"llm"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Approval   ApprovalConfig   `mapstructure:"approval"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// LLMConfig selects the chat models.
type LLMConfig struct {
	APIKey        string `mapstructure:"api-key"`
	LiteModel     string `mapstructure:"lite-model"`
	StandardModel string `mapstructure:"standard-model"`
}

// EmbeddingsConfig configures the embedding provider and its cache. An empty
// provider disables embedding-based ranking.
type EmbeddingsConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api-key"`
	BaseURL     string  `mapstructure:"base-url"`
	Dimensions  int     `mapstructure:"dimensions"`
	CacheSize   int     `mapstructure:"cache-size"`
	CachePolicy string  `mapstructure:"cache-policy"`
	Concurrency int     `mapstructure:"concurrency"`
	RPS         float64 `mapstructure:"rps"`
	Burst       int     `mapstructure:"burst"`
}

// ApprovalConfig configures approval tickets.
type ApprovalConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// ToolsConfig bounds tool use per turn.
type ToolsConfig struct {
	MaxCalls int `mapstructure:"max-calls"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port       int             `mapstructure:"port"`
	CORSOrigin string          `mapstructure:"cors-origin"`
	RateLimit  RateLimitConfig `mapstructure:"rate-limit"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	RPS       float64  `mapstructure:"rps"`
	Burst     int      `mapstructure:"burst"`
	Whitelist []string `mapstructure:"whitelist"`
	Blacklist []string `mapstructure:"blacklist"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// New returns a viper instance with the environment bindings and defaults
// used by Load. Commands bind their flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Unprefixed names shared with other tooling.
	_ = v.BindEnv("database-url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("llm.api-key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("embeddings.api-key", EnvPrefix+"_EMBEDDINGS_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("approval.secret", EnvPrefix+"_APPROVAL_SECRET", "JWT_SECRET")

	// Every key needs a default for AutomaticEnv to see it on Unmarshal.
	v.SetDefault("directory-file", "")
	v.SetDefault("llm.lite-model", "")
	v.SetDefault("llm.standard-model", "")
	v.SetDefault("embeddings.provider", "")
	v.SetDefault("embeddings.model", "")
	v.SetDefault("embeddings.base-url", "")
	v.SetDefault("embeddings.dimensions", 0)
	v.SetDefault("embeddings.cache-size", embeddings.DefaultCacheEntries)
	v.SetDefault("embeddings.cache-policy", embeddings.PolicyFIFO)
	v.SetDefault("embeddings.concurrency", DefaultEmbeddingsConcurrency)
	v.SetDefault("embeddings.rps", 0)
	v.SetDefault("embeddings.burst", 0)
	v.SetDefault("approval.ttl", approval.DefaultTTL)
	v.SetDefault("tools.max-calls", tools.DefaultMaxCalls)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.cors-origin", "*")
	v.SetDefault("server.rate-limit.enabled", true)
	v.SetDefault("server.rate-limit.rps", DefaultRateLimitRPS)
	v.SetDefault("server.rate-limit.burst", DefaultRateLimitBurst)
	v.SetDefault("server.rate-limit.whitelist", []string{})
	v.SetDefault("server.rate-limit.blacklist", []string{})
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
	return v
}

// Load reads path (when non-empty) into v and decodes the result. The file
// format follows its extension (yaml, json, toml).
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Embeddings.CacheSize <= 0 {
		c.Embeddings.CacheSize = embeddings.DefaultCacheEntries
	}
	if c.Embeddings.CachePolicy == "" {
		c.Embeddings.CachePolicy = embeddings.PolicyFIFO
	}
	if c.Embeddings.Concurrency <= 0 {
		c.Embeddings.Concurrency = DefaultEmbeddingsConcurrency
	}
	if c.Approval.TTL == 0 {
		c.Approval.TTL = approval.DefaultTTL
	}
	if c.Tools.MaxCalls <= 0 {
		c.Tools.MaxCalls = tools.DefaultMaxCalls
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = DefaultRateLimitRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = DefaultRateLimitBurst
	}
}

// Validate checks that the configuration has valid values.
// Note: required settings depend on the command; see RequireStore and
// RequireApproval.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.DatabaseURL != "" && c.DirectoryFile != "" {
		return fmt.Errorf("config error: 'database-url' and 'directory-file' are mutually exclusive")
	}

	// Validate numeric ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Tools.MaxCalls < 1 {
		return fmt.Errorf("config error: 'tools.max-calls' must be at least 1")
	}
	if c.Embeddings.Dimensions < 0 {
		return fmt.Errorf("config error: 'embeddings.dimensions' must be non-negative")
	}
	if c.Embeddings.RPS < 0 {
		return fmt.Errorf("config error: 'embeddings.rps' must be non-negative")
	}
	if c.Approval.TTL != 0 && c.Approval.TTL < MinApprovalTTL {
		return fmt.Errorf("config error: 'approval.ttl' must be at least %s, got %s", MinApprovalTTL, c.Approval.TTL)
	}

	switch c.Embeddings.Provider {
	case "", embeddings.ProviderOpenAI, embeddings.ProviderGemini:
	default:
		return fmt.Errorf("config error: unsupported 'embeddings.provider' %q", c.Embeddings.Provider)
	}
	switch c.Embeddings.CachePolicy {
	case "", embeddings.PolicyFIFO, embeddings.PolicyLRU:
	default:
		return fmt.Errorf("config error: unsupported 'embeddings.cache-policy' %q", c.Embeddings.CachePolicy)
	}

	return nil
}

// RequireStore reports an error when neither storage backend is configured.
func (c *Config) RequireStore() error {
	if c.DatabaseURL == "" && c.DirectoryFile == "" {
		return fmt.Errorf("config error: one of 'database-url' or 'directory-file' is required")
	}
	return nil
}

// RequireApproval reports an error when approval tickets cannot be signed.
func (c *Config) RequireApproval() error {
	if c.Approval.Secret == "" {
		return fmt.Errorf("config error: 'approval.secret' is required")
	}
	return nil
}

// EmbeddingsConfig converts the embeddings section for embeddings.NewFromConfig.
// The result is disabled when no provider is set.
func (c *Config) EmbeddingsConfig() *embeddings.Config {
	apiKey := c.Embeddings.APIKey
	if apiKey == "" && c.Embeddings.Provider == embeddings.ProviderGemini {
		apiKey = c.LLM.APIKey
	}
	return &embeddings.Config{
		Provider: c.Embeddings.Provider,
		Model:    c.Embeddings.Model,
		APIKey:   apiKey,
		BaseURL:  c.Embeddings.BaseURL,
		Dim:      c.Embeddings.Dimensions,
		RPS:      c.Embeddings.RPS,
		Burst:    c.Embeddings.Burst,
	}
}

// LLMConfig returns the chat model configuration with any overrides applied.
func (c *Config) LLMConfig() *llm.Config {
	return llm.DefaultConfig().
		WithModel(llm.TierLite, c.LLM.LiteModel).
		WithModel(llm.TierStandard, c.LLM.StandardModel)
}

// ApprovalConfig converts the approval section for approval.NewIssuer.
func (c *Config) ApprovalConfig() approval.Config {
	return approval.Config{Secret: c.Approval.Secret, TTL: c.Approval.TTL}
}
