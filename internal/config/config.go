// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultLogLevel         = "INFO"
	DefaultSearchLimit      = 10
	DefaultTokenLimit       = 5000
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultCollection       = "codex7_snippets"
	DefaultDBTimeout        = 10 * time.Second
	DefaultEmbeddingTimeout = 60 * time.Second
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxRetries       = 2
	DefaultInitialDelay     = 100 * time.Millisecond
	DefaultBackoffFactor    = 4.0
	DefaultPoolSize         = 20
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures a remote AI service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates an Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		model:         DefaultEmbeddingModel,
		timeout:       DefaultEmbeddingTimeout,
		maxRetries:    DefaultMaxRetries,
		initialDelay:  DefaultInitialDelay,
		backoffFactor: DefaultBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured reports whether the endpoint can be used.
func (e Endpoint) IsConfigured() bool { return e.apiKey != "" }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) {
		if model != "" {
			e.model = model
		}
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with options applied.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// VectorConfig configures the vector store connection.
type VectorConfig struct {
	url        string
	apiKey     string
	collection string
}

// NewVectorConfig creates a VectorConfig.
func NewVectorConfig(url, apiKey, collection string) VectorConfig {
	if collection == "" {
		collection = DefaultCollection
	}
	return VectorConfig{url: url, apiKey: apiKey, collection: collection}
}

// URL returns the vector store URL (host:port).
func (v VectorConfig) URL() string { return v.url }

// APIKey returns the optional API key.
func (v VectorConfig) APIKey() string { return v.apiKey }

// Collection returns the collection name.
func (v VectorConfig) Collection() string { return v.collection }

// IsConfigured reports whether a vector store URL is set.
func (v VectorConfig) IsConfigured() bool { return v.url != "" }

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	vector            VectorConfig
	embeddingEndpoint *Endpoint
	topicEndpoint     *Endpoint
	searchLimit       int
	tokenLimit        int
	dbTimeout         time.Duration
	requestTimeout    time.Duration
	poolSize          int
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codex7"
	}
	return filepath.Join(home, ".codex7")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:           DefaultHost,
		port:           DefaultPort,
		dataDir:        dataDir,
		dbURL:          "sqlite:///" + filepath.Join(dataDir, "codex7.db"),
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		searchLimit:    DefaultSearchLimit,
		tokenLimit:     DefaultTokenLimit,
		dbTimeout:      DefaultDBTimeout,
		requestTimeout: DefaultRequestTimeout,
		poolSize:       DefaultPoolSize,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// Vector returns the vector store config.
func (c AppConfig) Vector() VectorConfig { return c.vector }

// EmbeddingEndpoint returns the embedding endpoint config, or nil.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// TopicEndpoint returns the topic-LLM endpoint config, or nil.
func (c AppConfig) TopicEndpoint() *Endpoint { return c.topicEndpoint }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// TokenLimit returns the default output token budget.
func (c AppConfig) TokenLimit() int { return c.tokenLimit }

// DBTimeout returns the per-query database deadline.
func (c AppConfig) DBTimeout() time.Duration { return c.dbTimeout }

// RequestTimeout returns the full-request deadline.
func (c AppConfig) RequestTimeout() time.Duration { return c.requestTimeout }

// PoolSize returns the relational connection pool bound.
func (c AppConfig) PoolSize() int { return c.poolSize }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// Validate checks startup requirements. A missing database URL is the only
// hard failure; embedding and vector stores degrade gracefully.
func (c AppConfig) Validate() error {
	if c.dbURL == "" {
		return fmt.Errorf("database URL is required")
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) {
		if host != "" {
			c.host = host
		}
	}
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) {
		if port > 0 {
			c.port = port
		}
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if dir != "" {
			c.dataDir = dir
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) {
		if url != "" {
			c.dbURL = url
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) {
		if level != "" {
			c.logLevel = level
		}
	}
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithVector sets the vector store config.
func WithVector(v VectorConfig) AppConfigOption {
	return func(c *AppConfig) { c.vector = v }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithTopicEndpoint sets the topic-LLM endpoint.
func WithTopicEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.topicEndpoint = &e }
}

// WithSearchLimit sets the default search limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithTokenLimit sets the default output token budget.
func WithTokenLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.tokenLimit = n
		}
	}
}

// Apply returns a copy of the config with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewAppConfigWithOptions creates an AppConfig with options applied.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
