package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.codex7
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/codex7.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Qdrant configures the vector store connection.
	Qdrant QdrantEnv `envconfig:"QDRANT"`

	// Embedding configures the embedding service endpoint.
	Embedding EndpointEnv `envconfig:"EMBEDDING"`

	// TopicLLM configures the optional topic-extraction LLM endpoint.
	TopicLLM EndpointEnv `envconfig:"TOPIC_LLM"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 10)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"10"`

	// TokenLimit is the default output token budget per docs response.
	// Env: TOKEN_LIMIT (default: 5000)
	TokenLimit int `envconfig:"TOKEN_LIMIT" default:"5000"`
}

// QdrantEnv holds environment configuration for the vector store.
type QdrantEnv struct {
	// URL is the vector store address (host:port).
	// Env: QDRANT_URL
	URL string `envconfig:"URL"`

	// APIKey is the optional API key.
	// Env: QDRANT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Collection is the collection name.
	// Env: QDRANT_COLLECTION (default: codex7_snippets)
	Collection string `envconfig:"COLLECTION" default:"codex7_snippets"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 2)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"2"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "CODEX7" would require CODEX7_DB_URL instead of DB_URL.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := []AppConfigOption{
		WithHost(e.Host),
		WithPort(e.Port),
		WithDataDir(e.DataDir),
		WithDBURL(e.DBURL),
		WithLogLevel(e.LogLevel),
		WithLogFormat(parseLogFormat(e.LogFormat)),
		WithSearchLimit(e.SearchLimit),
		WithTokenLimit(e.TokenLimit),
	}

	if e.Qdrant.URL != "" {
		opts = append(opts, WithVector(NewVectorConfig(e.Qdrant.URL, e.Qdrant.APIKey, e.Qdrant.Collection)))
	}
	if e.Embedding.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(e.Embedding.ToEndpoint()))
	}
	if e.TopicLLM.IsConfigured() {
		opts = append(opts, WithTopicEndpoint(e.TopicLLM.ToEndpoint()))
	}

	return NewAppConfigWithOptions(opts...)
}

// IsConfigured returns true if the endpoint has an API key configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.APIKey != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	return NewEndpointWithOptions(
		WithBaseURL(e.BaseURL),
		WithModel(e.Model),
		WithAPIKey(e.APIKey),
		WithTimeout(time.Duration(e.Timeout*float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
	)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
