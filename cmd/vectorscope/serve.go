package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vectorscope/vectorscope"
	"github.com/vectorscope/vectorscope/infrastructure/api"
	apimiddleware "github.com/vectorscope/vectorscope/infrastructure/api/middleware"
	"github.com/vectorscope/vectorscope/internal/config"
	"github.com/vectorscope/vectorscope/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8000)
  DATA_DIR                     Data directory (default: ~/.vectorscope)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/vectorscope.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  CORS_ORIGINS                 Comma-separated allowed origins (default: *)
  WORKER_COUNT                 Background workers (default: 1)
  POLL_INTERVAL_SECONDS        Queue poll interval (default: 1)
  JOB_TIMEOUT_SECONDS          Per-job wall-clock limit (default: 7200)
  PROGRESS_TTL_SECONDS         Progress record lifetime (default: 86400)
  UPLOAD_MAX_BYTES             Maximum accepted upload size (default: 64 MiB)
  MODEL_REGISTRY_PATH          YAML registry of embedding models

  EMBEDDING_ENDPOINT_*         Remote embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    BATCH_SIZE                 Texts per request (default: 128)
    TIMEOUT_SECONDS            Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts per batch (default: 3)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8000)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	opts := append(
		vectorscope.OptionsFromAppConfig(cfg),
		vectorscope.WithLogger(slogger),
	)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting vectorscope", attrs...)

	client, err := vectorscope.New(opts...)
	if err != nil {
		return fmt.Errorf("create vectorscope client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close vectorscope client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client, cfg.CORSOrigins())
	router := apiServer.Router()

	// Apply custom middleware (MUST be done before MountRoutes)
	router.Use(apimiddleware.Logging(slogger))

	apiServer.MountRoutes()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"vectorscope","version":"%s"}`, version)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	addr := cfg.Addr()
	server := api.NewServer(addr, slogger)
	server.Router().Mount("/", router)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	slogger.Info("starting server", slog.String("addr", addr))
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
