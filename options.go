package codex7

import (
	"io"
	"log/slog"

	"github.com/codex7/codex7/application/service"
	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/internal/config"
)

// databaseType identifies the relational database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database          databaseType
	dbPath            string
	dbDSN             string
	dataDir           string
	vector            config.VectorConfig
	embeddingEndpoint *config.Endpoint
	topicEndpoint     *config.Endpoint
	embedder          search.Embedder
	upstream          service.Upstream
	logger            *slog.Logger
	closers           []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir: config.DefaultDataDir(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database. An empty path stores the
// database under the data directory.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL via a postgres:// DSN.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDataDir sets the data directory for database storage.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		if dir != "" {
			c.dataDir = dir
		}
	}
}

// WithQdrant configures Qdrant as the vector store. Without it, vectors are
// held in process memory and lost on restart.
func WithQdrant(url, apiKey, collection string) Option {
	return func(c *clientConfig) {
		c.vector = config.NewVectorConfig(url, apiKey, collection)
	}
}

// WithOpenAI sets OpenAI as both the embedding and the topic-LLM provider.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		endpoint := config.NewEndpointWithOptions(config.WithAPIKey(apiKey))
		c.embeddingEndpoint = &endpoint
		c.topicEndpoint = &endpoint
	}
}

// WithEmbeddingEndpoint sets the embedding endpoint, which may point at any
// OpenAI-compatible API.
func WithEmbeddingEndpoint(e config.Endpoint) Option {
	return func(c *clientConfig) {
		c.embeddingEndpoint = &e
	}
}

// WithTopicEndpoint sets the endpoint used by the LLM topic fallback.
func WithTopicEndpoint(e config.Endpoint) Option {
	return func(c *clientConfig) {
		c.topicEndpoint = &e
	}
}

// WithEmbeddingProvider sets a custom embedding provider, overriding any
// embedding endpoint.
func WithEmbeddingProvider(e search.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithUpstream sets the remote documentation index queried during library
// resolution. May be nil for local-only resolution.
func WithUpstream(u service.Upstream) Option {
	return func(c *clientConfig) {
		c.upstream = u
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}

// FromAppConfig derives client options from an AppConfig. The CLI uses it to
// bridge environment configuration into the library entry point.
func FromAppConfig(cfg config.AppConfig) []Option {
	opts := []Option{
		WithDataDir(cfg.DataDir()),
	}
	if cfg.DBURL() != "" {
		if dsn, ok := postgresDSN(cfg.DBURL()); ok {
			opts = append(opts, WithPostgres(dsn))
		} else {
			opts = append(opts, WithSQLite(sqlitePath(cfg.DBURL())))
		}
	}
	if cfg.Vector().IsConfigured() {
		opts = append(opts, WithQdrant(cfg.Vector().URL(), cfg.Vector().APIKey(), cfg.Vector().Collection()))
	}
	if e := cfg.EmbeddingEndpoint(); e != nil && e.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(*e))
	}
	if e := cfg.TopicEndpoint(); e != nil && e.IsConfigured() {
		opts = append(opts, WithTopicEndpoint(*e))
	}
	return opts
}
