// Package codex7 provides a self-hostable documentation knowledge base.
//
// Codex7 ingests repositories and markdown trees, chunks documentation into
// snippets, tags topics, embeds snippets into vectors, and serves
// token-budgeted documentation to coding agents over MCP and HTTP.
//
// Basic usage:
//
//	client, err := codex7.New(
//	    codex7.WithSQLite(".codex7/codex7.db"),
//	    codex7.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Index a documentation tree
//	job, err := client.Indexer.IndexProject(ctx, service.IndexParams{
//	    Path:       "./docs",
//	    Identifier: "/acme/router",
//	})
//
//	// Token-budgeted docs
//	docs, err := client.Retrieval.LibraryDocs(ctx, service.DocsRequest{
//	    Library: "/acme/router",
//	    Topic:   "routing",
//	})
package codex7

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/codex7/codex7/application/service"
	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/index"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/infrastructure/persistence"
	"github.com/codex7/codex7/infrastructure/provider"
	"github.com/codex7/codex7/infrastructure/topics"
	"github.com/codex7/codex7/infrastructure/vector"
	"github.com/codex7/codex7/internal/config"
	"github.com/codex7/codex7/internal/database"
)

// ErrClientClosed is returned when an operation is attempted on a closed Client.
var ErrClientClosed = errors.New("client is closed")

// Client is the main entry point for the codex7 library.
//
// Access services via struct fields:
//
//	client.Indexer.IndexProject(ctx, params)
//	client.Retrieval.LibraryDocs(ctx, req)
//	client.Resolver.Resolve(ctx, "react")
type Client struct {
	// Public service fields (direct access)
	Indexer   *service.Indexer
	Retrieval *service.Retrieval
	Resolver  *service.Resolver

	// Stores for direct queries
	Libraries library.Store
	Documents document.Store
	Jobs      index.Store

	db      database.Database
	vectors search.VectorStore
	closers []io.Closer

	logger  *slog.Logger
	dataDir string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options. Without a database option
// the client stores SQLite data under the data directory; without a Qdrant
// option vectors live in process memory.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, buildDatabaseURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	libraryStore := persistence.NewLibraryStore(db)
	documentStore := persistence.NewDocumentStore(db)
	jobStore := persistence.NewJobStore(db)

	vectors, closers, err := buildVectorStore(cfg, logger)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("vector store: %w", err), errClose)
	}
	for _, closer := range cfg.closers {
		closers = append(closers, closer)
	}

	embedder := cfg.embedder
	if embedder == nil {
		embedder = provider.NewOpenAIProvider(cfg.embeddingEndpoint)
	}

	topicProvider := provider.NewOpenAIProvider(cfg.topicEndpoint)
	extractor := topics.NewExtractor(topicProvider, logger)

	client := &Client{
		Libraries: libraryStore,
		Documents: documentStore,
		Jobs:      jobStore,
		db:        db,
		vectors:   vectors,
		closers:   closers,
		logger:    logger,
		dataDir:   cfg.dataDir,
	}

	client.Indexer = service.NewIndexer(libraryStore, documentStore, jobStore, vectors, embedder, extractor, logger)
	client.Retrieval = service.NewRetrieval(libraryStore, documentStore, vectors, embedder, logger)
	client.Resolver = service.NewResolver(libraryStore, cfg.upstream, logger)

	return client, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("codex7 client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// DataDir returns the data directory path.
func (c *Client) DataDir() string {
	return c.dataDir
}

// buildDatabaseURL maps the configured database onto a connection URL.
func buildDatabaseURL(cfg *clientConfig) string {
	switch cfg.database {
	case databasePostgres:
		return cfg.dbDSN
	default:
		path := cfg.dbPath
		if path == "" {
			path = filepath.Join(cfg.dataDir, "codex7.db")
		}
		return "sqlite:///" + path
	}
}

// buildVectorStore creates the vector store: Qdrant behind a read-through
// cache when configured, otherwise the in-process store.
func buildVectorStore(cfg *clientConfig, logger *slog.Logger) (search.VectorStore, []io.Closer, error) {
	if !cfg.vector.IsConfigured() {
		logger.Info("no vector store configured, using in-process vectors")
		return vector.NewMemoryStore(), nil, nil
	}

	qdrant, err := vector.NewQdrantStore(cfg.vector.URL(), cfg.vector.APIKey(), cfg.vector.Collection())
	if err != nil {
		return nil, nil, err
	}
	cached, err := vector.NewCachedStore(qdrant)
	if err != nil {
		errClose := qdrant.Close()
		return nil, nil, errors.Join(err, errClose)
	}
	return cached, []io.Closer{qdrant}, nil
}

// postgresDSN reports whether the URL targets PostgreSQL.
func postgresDSN(url string) (string, bool) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return url, true
	}
	return "", false
}

// sqlitePath strips the sqlite:/// scheme prefix if present.
func sqlitePath(url string) string {
	return strings.TrimPrefix(url, "sqlite:///")
}
