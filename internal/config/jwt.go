package config

import (
	"fmt"
	"strings"
)

// DefaultTokenAudience is the audience Supabase puts in user session tokens.
const DefaultTokenAudience = "authenticated"

// JWTConfig holds configuration for session token validation and, in
// development, token generation.
type JWTConfig struct {
	// Secret verifies HS256 tokens. Empty when JWKS is used.
	Secret string
	// JWKSURL is the key set endpoint for asymmetric tokens.
	JWKSURL  string
	Audience string
	Cookie   string
	// ExpirationHours is the lifetime of tokens minted by the token command.
	ExpirationHours int
}

// JWT derives the token configuration. The JWKS endpoint of the Supabase
// project takes precedence over the shared secret.
func (c *Config) JWT() (*JWTConfig, error) {
	jc := &JWTConfig{
		Secret:          c.Auth.JWTSecret,
		Audience:        DefaultTokenAudience,
		Cookie:          c.Auth.SessionCookie,
		ExpirationHours: 24,
	}
	if c.Auth.SupabaseURL != "" {
		jc.JWKSURL = strings.TrimRight(c.Auth.SupabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	}
	if err := jc.normalize(); err != nil {
		return nil, err
	}
	return jc, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" && c.JWKSURL == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET or SUPABASE_URL is required")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("token expiration must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
