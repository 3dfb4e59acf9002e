package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/config"
	"github.com/saadk408/victry/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenHours int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a development session token",
	Long: `Print an HS256 session token for the given user, signed with SUPABASE_JWT_SECRET.
Only for local development against a database without Supabase Auth.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID (UUID) to put in the subject claim")
	tokenCmd.Flags().IntVar(&tokenHours, "hours", 24, "Token lifetime in hours")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to mint tokens in production")
	}
	return writeToken(cmd.OutOrStdout(), cfg, tokenUser, tokenHours)
}

func writeToken(w io.Writer, cfg *config.Config, user string, hours int) error {
	userID, err := uuid.Parse(user)
	if err != nil {
		return fmt.Errorf("--user must be a UUID: %w", err)
	}

	jwtConfig := &config.JWTConfig{
		Secret:          cfg.Auth.JWTSecret,
		Audience:        config.DefaultTokenAudience,
		ExpirationHours: hours,
	}
	if jwtConfig.Secret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required to sign tokens")
	}

	// Signing never touches the key set, so no JWKS client is created.
	svc, err := server.NewJWTService(context.Background(), jwtConfig, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	token, err := svc.GenerateToken(userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
