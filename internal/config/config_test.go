package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"idlens/internal/config"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if !cfg.Session.EnableFallback {
		t.Fatal("fallback should default on")
	}
	if cfg.Session.BarcodeTimeout() != 3*time.Second {
		t.Fatalf("barcode timeout = %s", cfg.Session.BarcodeTimeout())
	}
	if cfg.Session.TransitionBudget() != 200*time.Millisecond {
		t.Fatalf("transition budget = %s", cfg.Session.TransitionBudget())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if path == "" {
		t.Fatal("resolved path should be reported")
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Fatalf("max retries = %d", cfg.Retry.MaxRetries)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[session]",
		"barcode_timeout_ms = 1500",
		"enable_fallback = false",
		"[retry]",
		"max_retries = 5",
		"[logging]",
		`level = "DEBUG"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected file to be found")
	}
	if cfg.Session.BarcodeTimeoutMs != 1500 || cfg.Session.EnableFallback {
		t.Fatalf("session overrides not applied: %+v", cfg.Session)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Fatalf("retry override not applied: %+v", cfg.Retry)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level not normalized: %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Session.OCRTimeoutMs != 2000 {
		t.Fatalf("ocr timeout default lost: %d", cfg.Session.OCRTimeoutMs)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero barcode timeout", func(c *config.Config) { c.Session.BarcodeTimeoutMs = 0 }},
		{"threshold above one", func(c *config.Config) { c.Session.ConfidenceThreshold = 1.2 }},
		{"total below barcode", func(c *config.Config) { c.Session.TotalTimeoutMs = 100 }},
		{"negative retries", func(c *config.Config) { c.Retry.MaxRetries = -1 }},
		{"max delay below base", func(c *config.Config) { c.Retry.MaxDelayMs = 1 }},
		{"multiplier below one", func(c *config.Config) { c.Retry.Multiplier = 0.5 }},
		{"min samples above window", func(c *config.Config) { c.Quality.MinSamples = 99 }},
		{"all weights zero", func(c *config.Config) {
			c.Quality.BlurWeight, c.Quality.BrightnessWeight, c.Quality.DocWeight = 0, 0, 0
		}},
		{"cpu over 100", func(c *config.Config) { c.Budget.MaxCPUPercent = 150 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config must load: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist")
	}
	defaults := config.Default()
	if cfg.Session != defaults.Session {
		t.Fatalf("sample session drifted from defaults: %+v vs %+v", cfg.Session, defaults.Session)
	}
	if cfg.Retry != defaults.Retry {
		t.Fatalf("sample retry drifted from defaults: %+v vs %+v", cfg.Retry, defaults.Retry)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			t.Fatalf("directory %q not created: %v", p, err)
		}
	}
	if got := cfg.JournalPath(); got != filepath.Join(cfg.Paths.DataDir, "journal.db") {
		t.Fatalf("journal path = %q", got)
	}
}
