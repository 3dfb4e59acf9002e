package ratelimit

import (
	"net/http"
	"time"

	"github.com/saadk408/victry/internal/config"
)

// EndpointConfig represents rate limiting configuration for a group of endpoints.
type EndpointConfig struct {
	Path   string        // Path pattern: "*" matches one segment, a trailing "/" matches any suffix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// NewConfig builds the limiter configuration from the rate limit settings.
func NewConfig(l config.RateLimits) *Config {
	if !l.Enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    l.ReadsPerMinute,
		DefaultWindow:   time.Minute,
		DefaultBurst:    l.ReadsBurst,
		CleanupInterval: 5 * time.Minute,
		EndpointConfigs: EndpointConfigs(l),
	}
}

// EndpointConfigs returns the endpoint tiers for the given settings.
func EndpointConfigs(l config.RateLimits) []EndpointConfig {
	ai := func(path string) EndpointConfig {
		return EndpointConfig{Path: path, Method: http.MethodPost, Limit: l.AIPerHour, Window: time.Hour, Burst: l.AIBurst}
	}
	write := func(method string) EndpointConfig {
		return EndpointConfig{Path: "/api/", Method: method, Limit: l.WritesPerMinute, Window: time.Minute, Burst: l.WritesBurst}
	}

	return []EndpointConfig{
		// Tier 1: model calls and page fetches
		ai("/api/resumes/*/tailor"),
		ai("/api/job-descriptions/*/analyze"),
		ai("/api/job-descriptions/import"),

		// Tier 2: writes
		write(http.MethodPost),
		write(http.MethodPut),
		write(http.MethodPatch),
		write(http.MethodDelete),

		// Tier 3: reads use the default limit
		// Tier 4: health and metrics are unlimited, see MatchEndpoint
	}
}
