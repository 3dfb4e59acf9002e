package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/saadk408/victry/internal/config"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/fetch"
	"github.com/saadk408/victry/internal/jobs"
	"github.com/saadk408/victry/internal/llm"
	"github.com/saadk408/victry/internal/metrics"
	"github.com/saadk408/victry/internal/resume"
	"github.com/saadk408/victry/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the resume and job description API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, cfg.Database.URL, db.Options{
		MaxConns: cfg.Database.MaxConns,
		Role:     cfg.Database.Role,
	}, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	jwtConfig, err := cfg.JWT()
	if err != nil {
		return err
	}
	jwtService, err := server.NewJWTService(ctx, jwtConfig, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	client, err := newLLMClient(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	fetcher := fetch.New(nil, nil)

	srv := server.New(server.Deps{
		Config:  cfg,
		Logger:  logger,
		Resumes: resume.New(database, client, logger, resume.WithObserver(m)),
		Jobs:    jobs.New(database, fetcher, client, logger),
		Auth:    jwtService.AsTokenValidator(),
		Metrics: m,
		Health:  database.Ping,
	})

	return srv.Start(ctx)
}

// newLLMClient returns the instrumented model client, or nil when no API key
// is configured. Tailoring and analysis then fail with a server error.
func newLLMClient(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (llm.Client, error) {
	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		logger.Warn("no LLM API key configured, tailoring and analysis are disabled", "provider", cfg.LLM.Provider)
		return nil, nil
	}

	llmConfig := llm.ConfigFor(llm.Provider(cfg.LLM.Provider)).WithTimeout(cfg.LLM.Timeout)
	client, err := llm.NewClient(ctx, llmConfig, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Info("LLM client ready", "provider", client.Provider(), "model", client.GetModel(llm.TierAdvanced))
	return m.InstrumentLLM(client), nil
}
