package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/config"
	"github.com/saadk408/victry/internal/server/middleware"
)

const authenticatedRole = "authenticated"

// Claims are the Supabase session claims the API relies on. The user ID is
// the subject.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims

	userID uuid.UUID
}

// GetUserID returns the user ID from the claims.
// This implements the middleware.UserIDGetter interface.
func (c *Claims) GetUserID() uuid.UUID {
	return c.userID
}

// AsTokenValidator returns a TokenValidator adapter for this JWTService.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return &jwtServiceValidator{service: s}
}

// jwtServiceValidator adapts JWTService to middleware.TokenValidator interface.
type jwtServiceValidator struct {
	service *JWTService
}

func (v *jwtServiceValidator) ValidateToken(tokenString string) (middleware.UserIDGetter, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTService validates session tokens. Asymmetric tokens are checked against
// the project's JWKS; HS256 tokens against the shared secret.
type JWTService struct {
	config *config.JWTConfig
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTService creates a JWT service. When a JWKS URL is configured the key
// set is fetched and kept fresh in the background until ctx is done.
func NewJWTService(ctx context.Context, cfg *config.JWTConfig, logger *slog.Logger) (*JWTService, error) {
	s := &JWTService{config: cfg, logger: logger}
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		s.jwks = jwks
		logger.Info("JWT verifier initialized", "jwks_url", cfg.JWKSURL)
	}
	return s, nil
}

// GenerateToken mints an HS256 token for the given user. Only used for local
// development; real sessions come from Supabase.
func (s *JWTService) GenerateToken(userID uuid.UUID) (string, error) {
	if s.config.Secret == "" {
		return "", fmt.Errorf("SUPABASE_JWT_SECRET is required to sign tokens")
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.config.ExpirationHours) * time.Hour)

	claims := &Claims{
		Role: authenticatedRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{s.config.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a session token and returns the claims. Every
// failure wraps ErrUnauthenticated.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token string is empty", ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFor,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithAudience(s.config.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrUnauthenticated)
	}

	// Reject anonymous sessions
	if claims.Role != authenticatedRole {
		return nil, fmt.Errorf("%w: unexpected role %q", ErrUnauthenticated, claims.Role)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrUnauthenticated)
	}
	claims.userID = userID

	return claims, nil
}

// keyFor picks the verification key by algorithm family. HMAC tokens never
// reach the key set.
func (s *JWTService) keyFor(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if s.config.Secret == "" {
			return nil, fmt.Errorf("HS256 tokens are not accepted")
		}
		return []byte(s.config.Secret), nil
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		if s.jwks == nil {
			return nil, fmt.Errorf("asymmetric tokens are not accepted")
		}
		return s.jwks.Keyfunc(token)
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}
