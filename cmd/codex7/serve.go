package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/infrastructure/api"
	"github.com/codex7/codex7/internal/config"
	"github.com/codex7/codex7/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and MCP server",
		Long: `Start the HTTP API server with the streamable MCP endpoint at /mcp.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                  Server host to bind to (default: 0.0.0.0)
  PORT                  Server port to listen on (default: 8080)
  DATA_DIR              Data directory (default: ~/.codex7)
  DB_URL                Database URL (default: sqlite:///{data_dir}/codex7.db)
  LOG_LEVEL             Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT            Log format: pretty, json (default: pretty)

  QDRANT_URL            Vector store address, e.g. http://localhost:6334
  QDRANT_API_KEY        Vector store API key
  QDRANT_COLLECTION     Collection name (default: codex7_snippets)

  EMBEDDING_*           Embedding endpoint configuration
    BASE_URL            Base URL (e.g., https://api.openai.com/v1)
    MODEL               Model identifier (default: text-embedding-3-small)
    API_KEY             API key for authentication
    TIMEOUT             Request timeout in seconds (default: 60)
    MAX_RETRIES         Retry attempts (default: 2)

  TOPIC_LLM_*           Topic-extraction LLM endpoint (same fields)

  SEARCH_LIMIT          Default search result limit (default: 10)
  TOKEN_LIMIT           Default docs token budget (default: 5000)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	slogger.Info("starting codex7",
		slog.String("version", version),
		slog.String("addr", cfg.Addr()),
		slog.String("data_dir", cfg.DataDir()),
	)

	opts := append(codex7.FromAppConfig(cfg), codex7.WithLogger(slogger))
	client, err := codex7.New(opts...)
	if err != nil {
		return fmt.Errorf("create codex7 client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close codex7 client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := apiServer.WaitForShutdown(ctx, config.DefaultRequestTimeout); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}
	if len(opts) == 0 {
		return cfg
	}
	return cfg.Apply(opts...)
}
