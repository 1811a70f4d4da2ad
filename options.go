package vectorscope

import (
	"log/slog"
	"time"

	"github.com/vectorscope/vectorscope/domain/embedding"
	"github.com/vectorscope/vectorscope/infrastructure/provider"
	"github.com/vectorscope/vectorscope/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL            string
	dataDir          string
	modelDir         string
	generator        embedding.Generator
	endpoint         config.Endpoint
	models           config.ModelRegistry
	modelsPath       string
	logger           *slog.Logger
	workerPollPeriod time.Duration
	workerCount      int
	jobTimeout       time.Duration
	progressTTL      time.Duration
	uploadMaxBytes   int64
	batchSize        int
	startWorker      bool
}

// newClientConfig creates a clientConfig with defaults from internal/config.
// This ensures all defaults come from the single source of truth.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:          config.DefaultDataDir(),
		workerPollPeriod: config.DefaultPollInterval,
		workerCount:      config.DefaultWorkerCount,
		jobTimeout:       config.DefaultJobTimeout,
		progressTTL:      config.DefaultProgressTTL,
		uploadMaxBytes:   config.DefaultUploadMaxBytes,
		batchSize:        config.DefaultEndpointBatchSize,
		startWorker:      true,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres configures PostgreSQL as the database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDatabaseURL sets the database URL directly.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithDataDir sets the data directory for uploads and the progress cache.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithOpenAI sets OpenAI as the embedding provider.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.endpoint = config.NewEndpointWithOptions(config.WithAPIKey(apiKey))
	}
}

// WithEndpoint configures the remote embedding endpoint in full: base URL,
// model, credentials, batching, and retry policy.
func WithEndpoint(endpoint config.Endpoint) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithLocalModel points the built-in embedding provider at an ONNX model
// directory; used when no remote endpoint is configured.
func WithLocalModel(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithGenerator injects an embedding generator directly, bypassing provider
// construction. The generator is used as-is, without batching or retry
// wrapping.
func WithGenerator(g embedding.Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithModelRegistry restricts job submissions to the registered models and
// supplies the default model for submissions that omit one.
func WithModelRegistry(models config.ModelRegistry) Option {
	return func(c *clientConfig) {
		c.models = models
	}
}

// WithModelRegistryFile loads the model registry from a YAML file when the
// client is constructed.
func WithModelRegistryFile(path string) Option {
	return func(c *clientConfig) {
		c.modelsPath = path
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithWorkerPollPeriod sets how often the worker polls for tasks.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.workerPollPeriod = d
		}
	}
}

// WithWorkerCount sets how many claim loops the background worker runs.
func WithWorkerCount(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithJobTimeout sets the per-job wall-clock limit the queue enforces.
func WithJobTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}

// WithProgressTTL sets the lifetime of progress records.
func WithProgressTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.progressTTL = d
		}
	}
}

// WithUploadMaxBytes caps accepted upload sizes.
func WithUploadMaxBytes(n int64) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.uploadMaxBytes = n
		}
	}
}

// WithoutWorker disables the background worker; tasks queue up until an
// external worker drains them. Used by tests and one-shot CLI commands.
func WithoutWorker() Option {
	return func(c *clientConfig) {
		c.startWorker = false
	}
}

// OptionsFromAppConfig translates a loaded AppConfig into client options.
func OptionsFromAppConfig(cfg config.AppConfig) []Option {
	opts := []Option{
		WithDatabaseURL(cfg.DBURL()),
		WithDataDir(cfg.DataDir()),
		WithWorkerPollPeriod(cfg.PollInterval()),
		WithWorkerCount(cfg.WorkerCount()),
		WithJobTimeout(cfg.JobTimeout()),
		WithProgressTTL(cfg.ProgressTTL()),
		WithUploadMaxBytes(cfg.UploadMaxBytes()),
	}
	if endpoint := cfg.EmbeddingEndpoint(); endpoint != nil && endpoint.IsConfigured() {
		opts = append(opts, WithEndpoint(*endpoint))
	}
	if path := cfg.ModelRegistryPath(); path != "" {
		opts = append(opts, WithModelRegistryFile(path))
	}
	return opts
}

// buildGenerator resolves the embedding strategy: an injected generator wins,
// then a configured remote endpoint, then the local model directory.
func buildGenerator(c *clientConfig, dataDir string) (embedding.Generator, *provider.HugotGenerator, error) {
	if c.generator != nil {
		return c.generator, nil, nil
	}

	if c.endpoint.IsConfigured() {
		inner := provider.NewOpenAIGenerator(provider.OpenAIConfig{
			APIKey:  c.endpoint.APIKey(),
			BaseURL: c.endpoint.BaseURL(),
			Model:   c.endpoint.Model(),
			Timeout: c.endpoint.Timeout(),
		})
		batcher := provider.NewBatcher(inner,
			provider.WithBatchSize(c.endpoint.BatchSize()),
			provider.WithMaxRetries(c.endpoint.MaxRetries()),
			provider.WithInitialDelay(c.endpoint.InitialDelay()),
			provider.WithBackoffFactor(c.endpoint.BackoffFactor()),
			provider.WithMaxDelay(c.endpoint.MaxDelay()),
		)
		return batcher, nil, nil
	}

	modelDir := c.modelDir
	if modelDir == "" {
		modelDir = dataDir + "/models"
	}
	hugot := provider.NewHugotGenerator(modelDir)
	if !hugot.Available() {
		return nil, nil, ErrNoEmbeddingProvider
	}
	return provider.NewBatcher(hugot, provider.WithBatchSize(c.batchSize)), hugot, nil
}
