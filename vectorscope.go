// Package vectorscope provides a library for embedding tabular data and
// exploring it as 2D/3D point clouds.
//
// Vectorscope ingests CSV files row by row, generates text embeddings for a
// chosen column, reduces them to viewable coordinates, clusters them, and
// serves the result. The heavy lifting runs asynchronously: submissions go
// through a durable queue and report progress through a TTL-bound cache.
//
// Basic usage:
//
//	client, err := vectorscope.New(
//	    vectorscope.WithSQLite(".vectorscope/data.db"),
//	    vectorscope.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Upload a dataset
//	file, err := client.Files.Upload(ctx, service.UploadRequest{
//	    UserID: 1, ProjectID: 1, Name: "reviews.csv", Content: f,
//	})
//
//	// Submit an embedding job and poll it
//	view, err := client.Jobs.Submit(ctx, service.SubmitRequest{
//	    UserID: 1, FileID: file.ID(), Column: "text", ModelName: "text-embedding-3-small",
//	})
//	view, err = client.Jobs.Progress(ctx, view.JobID)
package vectorscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/vectorscope/vectorscope/application/handler"
	"github.com/vectorscope/vectorscope/application/handler/ingestion"
	"github.com/vectorscope/vectorscope/application/handler/pipeline"
	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/domain/embedding"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/infrastructure/persistence"
	"github.com/vectorscope/vectorscope/infrastructure/progress"
	"github.com/vectorscope/vectorscope/infrastructure/provider"
	"github.com/vectorscope/vectorscope/infrastructure/reduce"
	"github.com/vectorscope/vectorscope/internal/config"
	"github.com/vectorscope/vectorscope/internal/database"
)

// Construction errors.
var (
	// ErrNoDatabase indicates no database was configured.
	ErrNoDatabase = errors.New("vectorscope: no database configured")
	// ErrNoEmbeddingProvider indicates neither a remote endpoint nor a local
	// model is available.
	ErrNoEmbeddingProvider = errors.New("vectorscope: no embedding provider configured and no local model found")
)

// Client is the main entry point for the vectorscope library.
// The background worker starts automatically on creation.
//
// Access resources via struct fields:
//
//	client.Files.Upload(ctx, req)
//	client.Jobs.Submit(ctx, req)
//	client.Visualizations.Find(ctx, fileID, method, dims)
type Client struct {
	// Public resource fields (direct service access)
	Files          *service.Files
	Jobs           *service.Jobs
	Visualizations *service.Visualizations

	db       database.Database
	progress *progress.Store

	queue      *service.Queue
	worker     *service.Worker
	registry   *handler.Registry
	strategies *reduce.Registry
	generator  embedding.Generator
	hugot      *provider.HugotGenerator

	logger  *slog.Logger
	dataDir string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options.
// The background worker is started automatically.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	models := cfg.models
	if cfg.modelsPath != "" {
		models, err = config.LoadModelRegistry(cfg.modelsPath)
		if err != nil {
			return nil, err
		}
	}

	generator, hugot, err := buildGenerator(cfg, dataDir)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	progressStore, err := progress.Open(filepath.Join(dataDir, "progress"), cfg.progressTTL, logger)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("open progress cache: %w", err), errClose)
	}

	// Stores
	fileStore := persistence.NewFileStore(db)
	rowStore := persistence.NewRowStore(db)
	embeddingStore := persistence.NewEmbeddingStore(db)
	pointStore := persistence.NewVisualizationStore(db)
	ledgerStore := persistence.NewLedgerStore(db)
	taskStore := persistence.NewTaskStore(db)

	// Application services
	strategies := reduce.NewRegistry()
	queue := service.NewQueue(taskStore, logger)
	registry := handler.NewRegistry()
	worker := service.NewWorker(taskStore, registry, logger).
		WithPollPeriod(cfg.workerPollPeriod).
		WithConcurrency(cfg.workerCount)

	client := &Client{
		db:         db,
		progress:   progressStore,
		queue:      queue,
		worker:     worker,
		registry:   registry,
		strategies: strategies,
		generator:  generator,
		hugot:      hugot,
		logger:     logger,
		dataDir:    dataDir,
	}

	client.Files = service.NewFiles(
		fileStore, rowStore, queue,
		filepath.Join(dataDir, "uploads"),
		cfg.uploadMaxBytes, cfg.jobTimeout, logger,
	)
	client.Jobs = service.NewJobs(fileStore, ledgerStore, progressStore, queue, cfg.jobTimeout, logger).
		WithModelRegistry(models)
	client.Visualizations = service.NewVisualizations(pointStore, logger)

	// Task handlers
	registry.Register(job.OperationGenerate, pipeline.NewGenerate(
		fileStore, rowStore, embeddingStore, pointStore,
		generator, strategies, progressStore, cfg.batchSize, logger,
	))
	registry.Register(job.OperationIngestColumns, ingestion.NewColumns(fileStore, rowStore, logger))

	if cfg.startWorker {
		worker.Start(ctx)
	}

	return client, nil
}

// Close releases all resources and stops the background worker.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return service.ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.worker.Stop()

	if c.hugot != nil {
		if err := c.hugot.Close(); err != nil {
			c.logger.Error("failed to close local embedding provider", slog.Any("error", err))
		}
	}

	if err := c.progress.Close(); err != nil {
		c.logger.Error("failed to close progress cache", slog.Any("error", err))
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("vectorscope client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// DataDir returns the resolved data directory.
func (c *Client) DataDir() string {
	return c.dataDir
}

// Strategies returns the reduction strategy registry, allowing callers to
// register alternative projector implementations before submitting jobs.
func (c *Client) Strategies() *reduce.Registry {
	return c.strategies
}
