package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window; 0 means unlimited
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// DefaultRPS and DefaultBurst apply to endpoints without a tier.
	DefaultRPS      float64
	DefaultBurst    int
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a Config with the default endpoint tiers.
func NewConfig(enabled bool, rps float64, burst int, whitelist, blacklist []string) *Config {
	return &Config{
		Enabled:         enabled,
		DefaultRPS:      rps,
		DefaultBurst:    burst,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       toSet(whitelist),
		Blacklist:       toSet(blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: model-backed turns (strictest limits)
		{Path: "/agent/turn", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Tier 2: matching, may call the embedding provider
		{Path: "/match", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},

		// Tier 3: everything else uses the default
		// Tier 4: health check (unlimited), handled in the matcher
	}
}

// toSet trims entries and drops empty ones.
func toSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
