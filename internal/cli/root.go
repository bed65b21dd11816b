// Package cli wires the snaptrack commands: staging and sweeping tracking
// events on the client side, and running the ingestion server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathlens/snaptrack/internal/config"
	"github.com/mathlens/snaptrack/internal/credstore"
	"github.com/mathlens/snaptrack/internal/deliver"
	"github.com/mathlens/snaptrack/internal/spool"
	"github.com/mathlens/snaptrack/internal/track"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "snaptrack",
	Short: "Durable usage tracking for the scanner app",
	Long:  "Stages tracking events on disk, delivers them best-effort to the ingestion endpoint, and sweeps staged records until each one is acknowledged.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to snaptrack.yaml (default: ~/.snaptrack/snaptrack.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildPipeline assembles the spool store, credential-backed delivery
// client, recorder, and sweeper from one config.
func buildPipeline(cfg config.Config) (*track.Recorder, *track.Sweeper, error) {
	store := spool.NewStore(cfg.SpoolDir)

	creds, err := credstore.Open(cfg.StateDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}

	client := deliver.NewClient(cfg.Endpoint, cfg.DeliverTimeout, creds)
	logf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	return track.NewRecorder(store, client, logf), track.NewSweeper(store, client, logf), nil
}
