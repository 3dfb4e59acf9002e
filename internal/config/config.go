// Package config provides configuration loading and validation for the
// server and the CLI.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration. Values come from defaults, an
// optional YAML file and environment variables, in increasing precedence.
type Config struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`

	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Limits   RateLimits     `mapstructure:"rate_limit"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Role     string `mapstructure:"role"` // SET LOCAL ROLE per request, e.g. authenticated
	MaxConns int32  `mapstructure:"max_conns"`
}

// AuthConfig describes how session tokens are verified. SupabaseURL enables
// JWKS verification; JWTSecret enables HS256 verification.
type AuthConfig struct {
	SupabaseURL   string `mapstructure:"supabase_url"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	SessionCookie string `mapstructure:"session_cookie"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// RateLimits configures the per-client token buckets.
type RateLimits struct {
	Enabled         bool `mapstructure:"enabled"`
	AIPerHour       int  `mapstructure:"ai_per_hour"`
	AIBurst         int  `mapstructure:"ai_burst"`
	WritesPerMinute int  `mapstructure:"writes_per_minute"`
	WritesBurst     int  `mapstructure:"writes_burst"`
	ReadsPerMinute  int  `mapstructure:"reads_per_minute"`
	ReadsBurst      int  `mapstructure:"reads_burst"`
}

var envBindings = map[string]string{
	"port":                         "PORT",
	"environment":                  "ENVIRONMENT",
	"log_level":                    "LOG_LEVEL",
	"database.url":                 "DATABASE_URL",
	"database.role":                "DATABASE_ROLE",
	"database.max_conns":           "DATABASE_MAX_CONNS",
	"auth.supabase_url":            "SUPABASE_URL",
	"auth.jwt_secret":              "SUPABASE_JWT_SECRET",
	"auth.session_cookie":          "SESSION_COOKIE",
	"llm.provider":                 "LLM_PROVIDER",
	"llm.anthropic_api_key":        "ANTHROPIC_API_KEY",
	"llm.gemini_api_key":           "GEMINI_API_KEY",
	"llm.timeout":                  "LLM_TIMEOUT",
	"cors.origins":                 "CORS_ORIGINS",
	"rate_limit.enabled":           "RATE_LIMIT_ENABLED",
	"rate_limit.ai_per_hour":       "RATE_LIMIT_AI_PER_HOUR",
	"rate_limit.ai_burst":          "RATE_LIMIT_AI_BURST",
	"rate_limit.writes_per_minute": "RATE_LIMIT_WRITES_PER_MINUTE",
	"rate_limit.writes_burst":      "RATE_LIMIT_WRITES_BURST",
	"rate_limit.reads_per_minute":  "RATE_LIMIT_READS_PER_MINUTE",
	"rate_limit.reads_burst":       "RATE_LIMIT_READS_BURST",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("environment", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("auth.session_cookie", "sb-access-token")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("cors.origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.ai_per_hour", 10)
	v.SetDefault("rate_limit.ai_burst", 2)
	v.SetDefault("rate_limit.writes_per_minute", 100)
	v.SetDefault("rate_limit.writes_burst", 10)
	v.SetDefault("rate_limit.reads_per_minute", 300)
	v.SetDefault("rate_limit.reads_burst", 50)
}

// Load reads the configuration. path names an optional YAML file; an empty
// path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.CORS.Origins = splitList(cfg.CORS.Origins)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return &cfg, nil
}

// splitList flattens comma separated entries, as given by CORS_ORIGINS.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the settings needed to serve the API.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got %d", c.Port)
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config error: DATABASE_MAX_CONNS must be positive")
	}
	if c.Auth.SupabaseURL == "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config error: SUPABASE_URL or SUPABASE_JWT_SECRET is required")
	}
	if c.Auth.SessionCookie == "" {
		return fmt.Errorf("config error: SESSION_COOKIE cannot be empty")
	}
	switch c.LLM.Provider {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("config error: LLM_PROVIDER must be anthropic or gemini, got %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config error: LLM_TIMEOUT must be positive")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	l := c.Limits
	for name, n := range map[string]int{
		"RATE_LIMIT_AI_PER_HOUR":       l.AIPerHour,
		"RATE_LIMIT_AI_BURST":          l.AIBurst,
		"RATE_LIMIT_WRITES_PER_MINUTE": l.WritesPerMinute,
		"RATE_LIMIT_WRITES_BURST":      l.WritesBurst,
		"RATE_LIMIT_READS_PER_MINUTE":  l.ReadsPerMinute,
		"RATE_LIMIT_READS_BURST":       l.ReadsBurst,
	} {
		if l.Enabled && n < 1 {
			return fmt.Errorf("config error: %s must be positive", name)
		}
	}
	return nil
}

// ValidateDatabase checks the settings needed to reach the database.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	return nil
}

// LLMAPIKey returns the API key of the configured provider. An empty key
// means AI features are disabled.
func (c *Config) LLMAPIKey() string {
	if c.LLM.Provider == "gemini" {
		return c.LLM.GeminiAPIKey
	}
	return c.LLM.AnthropicAPIKey
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// ParseLogLevel maps LOG_LEVEL onto a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config error: unknown LOG_LEVEL %q", s)
}
