// Package config loads snaptrack configuration: defaults, then an
// optional YAML file, then SNAPTRACK_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mathlens/snaptrack/internal/quota"
)

// Config holds all tunables for the client tooling and the ingestion
// server.
type Config struct {
	// Endpoint is the ingestion URL events are delivered to.
	Endpoint string `yaml:"endpoint" env:"SNAPTRACK_ENDPOINT"`
	// SpoolDir stages not-yet-delivered event records.
	SpoolDir string `yaml:"spool_dir" env:"SNAPTRACK_SPOOL_DIR"`
	// StateDir holds credentials and other local state.
	StateDir string `yaml:"state_dir" env:"SNAPTRACK_STATE_DIR"`

	DeliverTimeout time.Duration `yaml:"deliver_timeout" env:"SNAPTRACK_DELIVER_TIMEOUT"`
	SweepInterval  time.Duration `yaml:"sweep_interval" env:"SNAPTRACK_SWEEP_INTERVAL"`

	// Server-side settings.
	ListenAddr  string       `yaml:"listen_addr" env:"SNAPTRACK_LISTEN_ADDR"`
	JournalPath string       `yaml:"journal_path" env:"SNAPTRACK_JOURNAL_PATH"`
	JWTSecret   string       `yaml:"jwt_secret" env:"SNAPTRACK_JWT_SECRET"`
	Limits      quota.Limits `yaml:"limits"`
}

// Default returns the built-in configuration rooted under the user's
// home directory.
func Default() Config {
	base := defaultBaseDir()
	return Config{
		Endpoint:       "http://localhost:8000/track",
		SpoolDir:       filepath.Join(base, "spool"),
		StateDir:       filepath.Join(base, "state"),
		DeliverTimeout: 5 * time.Second,
		SweepInterval:  time.Minute,
		ListenAddr:     ":8000",
		JournalPath:    filepath.Join(base, "journal.db"),
	}
}

// Load builds the effective configuration. path may be empty, in which
// case only the default file location is tried; a missing file is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = filepath.Join(defaultBaseDir(), "snaptrack.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env overrides: %w", err)
	}

	if cfg.Endpoint == "" {
		return Config{}, fmt.Errorf("endpoint must not be empty")
	}
	if cfg.SpoolDir == "" {
		return Config{}, fmt.Errorf("spool_dir must not be empty")
	}
	return cfg, nil
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "snaptrack")
	}
	return filepath.Join(home, ".snaptrack")
}
