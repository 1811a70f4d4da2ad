// Package main is the entry point for the vectorscope CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vectorscope/vectorscope/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectorscope",
		Short: "Vectorscope embedding visualization server",
		Long:  `Vectorscope ingests tabular datasets, embeds a chosen text column, and serves 2D/3D point clouds with cluster labels for exploration.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
