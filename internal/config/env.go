// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8000)
	Port int `envconfig:"PORT" default:"8000"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.vectorscope
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/vectorscope.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// EmbeddingEndpoint configures the remote embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// ModelRegistryPath is the path of the YAML model registry file.
	// Env: MODEL_REGISTRY_PATH
	ModelRegistryPath string `envconfig:"MODEL_REGISTRY_PATH"`

	// CORSOrigins is a comma-separated list of allowed CORS origins.
	// Env: CORS_ORIGINS (default: *)
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	// WorkerCount is the number of background workers.
	// Env: WORKER_COUNT (default: 1)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"1"`

	// PollIntervalSeconds is how often workers poll the queue, in seconds.
	// Env: POLL_INTERVAL_SECONDS (default: 1)
	PollIntervalSeconds float64 `envconfig:"POLL_INTERVAL_SECONDS" default:"1"`

	// JobTimeoutSeconds is the default per-job execution timeout in seconds.
	// Env: JOB_TIMEOUT_SECONDS (default: 7200)
	JobTimeoutSeconds float64 `envconfig:"JOB_TIMEOUT_SECONDS" default:"7200"`

	// ProgressTTLSeconds is the progress record expiry in seconds.
	// Env: PROGRESS_TTL_SECONDS (default: 86400)
	ProgressTTLSeconds float64 `envconfig:"PROGRESS_TTL_SECONDS" default:"86400"`

	// UploadMaxBytes is the maximum accepted upload size in bytes.
	// Env: UPLOAD_MAX_BYTES (default: 67108864)
	UploadMaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"67108864"`
}

// EndpointEnv holds environment configuration for the embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., text-embedding-3-small).
	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// BatchSize is the number of texts per embedding request.
	// Env: EMBEDDING_ENDPOINT_BATCH_SIZE (default: 128)
	BatchSize int `envconfig:"BATCH_SIZE" default:"128"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: EMBEDDING_ENDPOINT_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: EMBEDDING_ENDPOINT_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxDelay is the upper bound on a single retry delay in seconds.
	// Env: EMBEDDING_ENDPOINT_MAX_DELAY (default: 10)
	MaxDelay float64 `envconfig:"MAX_DELAY" default:"10"`
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
// For example, prefix "VECTORSCOPE" would require VECTORSCOPE_DATA_DIR
// instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}

	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = cfg.Apply(WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}
	if e.ModelRegistryPath != "" {
		cfg = cfg.Apply(WithModelRegistryPath(e.ModelRegistryPath))
	}
	if e.CORSOrigins != "" {
		cfg = cfg.Apply(WithCORSOrigins(ParseOrigins(e.CORSOrigins)))
	}

	cfg = cfg.Apply(
		WithWorkerCount(e.WorkerCount),
		WithPollInterval(secondsToDuration(e.PollIntervalSeconds)),
		WithJobTimeout(secondsToDuration(e.JobTimeoutSeconds)),
		WithProgressTTL(secondsToDuration(e.ProgressTTLSeconds)),
		WithUploadMaxBytes(e.UploadMaxBytes),
	)

	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithBatchSize(e.BatchSize),
		WithTimeout(secondsToDuration(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(secondsToDuration(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxDelay(secondsToDuration(e.MaxDelay)),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
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
