// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8000
	DefaultLogLevel              = "INFO"
	DefaultWorkerCount           = 1
	DefaultPollInterval          = time.Second
	DefaultJobTimeout            = 2 * time.Hour
	DefaultProgressTTL           = 24 * time.Hour
	DefaultProgressSubdir        = "progress"
	DefaultUploadMaxBytes        = 64 << 20
	DefaultEndpointBatchSize     = 128
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 3
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxDelay      = 10 * time.Second
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an embedding service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	batchSize     int
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxDelay      time.Duration
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		batchSize:     DefaultEndpointBatchSize,
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxDelay:      DefaultEndpointMaxDelay,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// BatchSize returns the number of texts per embedding request.
func (e Endpoint) BatchSize() int { return e.batchSize }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxDelay returns the upper bound on a single retry delay.
func (e Endpoint) MaxDelay() time.Duration { return e.maxDelay }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxDelay sets the upper bound on a single retry delay.
func WithMaxDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.maxDelay = d }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	embeddingEndpoint *Endpoint
	modelRegistryPath string
	corsOrigins       []string
	workerCount       int
	pollInterval      time.Duration
	jobTimeout        time.Duration
	progressTTL       time.Duration
	uploadMaxBytes    int64
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vectorscope"
	}
	return filepath.Join(home, ".vectorscope")
}

// DefaultProgressDir returns the default progress cache directory for a
// given data directory.
func DefaultProgressDir(dataDir string) string {
	return filepath.Join(dataDir, DefaultProgressSubdir)
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:           DefaultHost,
		port:           DefaultPort,
		dataDir:        dataDir,
		dbURL:          "sqlite:///" + filepath.Join(dataDir, "vectorscope.db"),
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		corsOrigins:    []string{"*"},
		workerCount:    DefaultWorkerCount,
		pollInterval:   DefaultPollInterval,
		jobTimeout:     DefaultJobTimeout,
		progressTTL:    DefaultProgressTTL,
		uploadMaxBytes: DefaultUploadMaxBytes,
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

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// ModelRegistryPath returns the path of the YAML model registry file.
func (c AppConfig) ModelRegistryPath() string { return c.modelRegistryPath }

// CORSOrigins returns the allowed CORS origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// WorkerCount returns the number of background workers.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// PollInterval returns how often workers poll the queue.
func (c AppConfig) PollInterval() time.Duration { return c.pollInterval }

// JobTimeout returns the default per-job execution timeout.
func (c AppConfig) JobTimeout() time.Duration { return c.jobTimeout }

// ProgressTTL returns the progress record expiry.
func (c AppConfig) ProgressTTL() time.Duration { return c.progressTTL }

// UploadMaxBytes returns the maximum accepted upload size.
func (c AppConfig) UploadMaxBytes() int64 { return c.uploadMaxBytes }

// ProgressDir returns the progress cache directory path.
func (c AppConfig) ProgressDir() string {
	return DefaultProgressDir(c.dataDir)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// EnsureProgressDir creates the progress cache directory if it doesn't exist.
func (c AppConfig) EnsureProgressDir() error {
	return os.MkdirAll(c.ProgressDir(), 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, "vectorscope.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "vectorscope.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithModelRegistryPath sets the YAML model registry file path.
func WithModelRegistryPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.modelRegistryPath = path }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithWorkerCount sets the number of background workers.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithPollInterval sets the worker poll interval.
func WithPollInterval(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithJobTimeout sets the default per-job execution timeout.
func WithJobTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}

// WithProgressTTL sets the progress record expiry.
func WithProgressTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.progressTTL = d
		}
	}
}

// WithUploadMaxBytes sets the maximum accepted upload size.
func WithUploadMaxBytes(n int64) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.uploadMaxBytes = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("progress_dir", c.ProgressDir()),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_base_url", c.endpointBaseURL(c.embeddingEndpoint)),
		slog.String("embedding_model", c.endpointModel(c.embeddingEndpoint)),
		slog.Int("worker_count", c.workerCount),
		slog.Duration("poll_interval", c.pollInterval),
		slog.Duration("progress_ttl", c.progressTTL),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointBaseURL(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.BaseURL()
}

func (c AppConfig) endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}

// ParseOrigins parses a comma-separated string of CORS origins.
func ParseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
