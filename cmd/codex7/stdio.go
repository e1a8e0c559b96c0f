package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/internal/log"
	"github.com/codex7/codex7/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants resolve libraries and fetch token-budgeted
documentation. Configuration is loaded from environment variables and an
optional .env file. Logs go to stderr since stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// stdout carries JSON-RPC; log to stderr only.
	logger := log.NewStderrLogger(cfg)
	slogger := logger.Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
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

	mcpServer := mcp.NewServer(client.Resolver, client.Retrieval, version, slogger)
	return mcpServer.ServeStdio()
}
