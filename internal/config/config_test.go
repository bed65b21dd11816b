package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint == "" || cfg.SpoolDir == "" {
		t.Errorf("defaults incomplete: %+v", cfg)
	}
	if cfg.DeliverTimeout != 5*time.Second {
		t.Errorf("DeliverTimeout = %v", cfg.DeliverTimeout)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for explicitly named missing file")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaptrack.yaml")
	content := `
endpoint: https://track.example.com/track
spool_dir: /var/spool/snaptrack
sweep_interval: 30s
limits:
  daily_events: 500
  daily_tokens: 10000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://track.example.com/track" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.SpoolDir != "/var/spool/snaptrack" {
		t.Errorf("SpoolDir = %q", cfg.SpoolDir)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %v", cfg.SweepInterval)
	}
	if cfg.Limits.DailyEvents != 500 || cfg.Limits.DailyTokens != 10000 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	// Untouched keys keep defaults.
	if cfg.DeliverTimeout != 5*time.Second {
		t.Errorf("DeliverTimeout = %v", cfg.DeliverTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaptrack.yaml")
	if err := os.WriteFile(path, []byte("endpoint: https://file.example.com/track\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SNAPTRACK_ENDPOINT", "https://env.example.com/track")
	t.Setenv("SNAPTRACK_DELIVER_TIMEOUT", "2s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://env.example.com/track" {
		t.Errorf("Endpoint = %q, want env override", cfg.Endpoint)
	}
	if cfg.DeliverTimeout != 2*time.Second {
		t.Errorf("DeliverTimeout = %v, want env override", cfg.DeliverTimeout)
	}
}

func TestLoadRejectsEmptyEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaptrack.yaml")
	if err := os.WriteFile(path, []byte(`endpoint: ""`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
