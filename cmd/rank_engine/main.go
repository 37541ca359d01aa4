// Package main provides the entry point for the rank engine server, workers and tools.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/rank-engine/internal/config"
	"github.com/jonathan/rank-engine/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rank_engine",
	Short: "Candidate ranking and rank-gated matching engine",
	Long: "Computes weighted candidate rank scores from profile factors, keeps them fresh as factors " +
		"and weights change, and gates job applications on minimum rank requirements.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// loadConfig reads configuration and installs the default logger before any command runs.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	cfg = loaded

	logger = observability.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
