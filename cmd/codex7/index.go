package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/application/service"
	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/internal/log"
)

func indexCmd() *cobra.Command {
	var (
		envFile      string
		libraryID    string
		versionLabel string
		title        string
		description  string
		keywords     []string
		llmTopics    bool
	)

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a documentation tree",
		Long: `Index the markdown documentation under <path> as a library,
wholesale-replacing any previous index of the same library.

Exit codes:
  0  indexed successfully
  1  configuration error
  2  no indexable snippets found
  3  embedding service unavailable
  4  storage failure`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runIndex(args[0], envFile, service.IndexParams{
				Identifier:   libraryID,
				Version:      versionLabel,
				Title:        title,
				Description:  description,
				Keywords:     keywords,
				UseLLMTopics: llmTopics,
			}))
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&libraryID, "library-id", "", "Library identifier as /org/project (required)")
	cmd.Flags().StringVar(&versionLabel, "version", "", "Version label (default: latest)")
	cmd.Flags().StringVar(&title, "title", "", "Library title, overriding project config and README")
	cmd.Flags().StringVar(&description, "description", "", "Library description")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Comma-separated keywords")
	cmd.Flags().BoolVar(&llmTopics, "llm-topics", false, "Use the LLM topic fallback for header-less files")
	_ = cmd.MarkFlagRequired("library-id")

	return cmd
}

func runIndex(path, envFile string, params service.IndexParams) int {
	cfg, err := loadConfig(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	if err := cfg.EnsureDataDir(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	opts := append(codex7.FromAppConfig(cfg), codex7.WithLogger(slogger))
	client, err := codex7.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitStorageFatal
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close codex7 client", slog.Any("error", err))
		}
	}()

	params.Path = path
	job, err := client.Indexer.IndexProject(context.Background(), params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrLibraryBusy):
			return exitConfig
		case service.IsNoSnippets(err):
			return exitNoSnippets
		case errors.Is(err, search.ErrEmbeddingUnavailable):
			return exitUpstream
		default:
			return exitStorageFatal
		}
	}

	slogger.Info("index completed",
		slog.String("job_id", job.ID()),
		slog.Int("documents", job.TotalDocuments()),
		slog.Int("processed", job.ProcessedDocuments()),
		slog.Int("failed", job.FailedDocuments()),
	)
	return exitOK
}
