package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Session holds the per-session orchestration settings. It is set once at
// session creation, shared read-only across the session components, and never
// mutated mid-session.
type Session struct {
	BarcodeTimeoutMs    int     `toml:"barcode_timeout_ms"`
	OCRTimeoutMs        int     `toml:"ocr_timeout_ms"`
	TotalTimeoutMs      int     `toml:"total_timeout_ms"`
	TransitionBudgetMs  int     `toml:"transition_budget_ms"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	EnableFallback      bool    `toml:"enable_fallback"`
}

// BarcodeTimeout returns the barcode phase budget as a duration.
func (s Session) BarcodeTimeout() time.Duration {
	return time.Duration(s.BarcodeTimeoutMs) * time.Millisecond
}

// OCRTimeout returns the OCR phase budget as a duration.
func (s Session) OCRTimeout() time.Duration {
	return time.Duration(s.OCRTimeoutMs) * time.Millisecond
}

// TotalTimeout returns the whole-session wall-clock budget.
func (s Session) TotalTimeout() time.Duration {
	return time.Duration(s.TotalTimeoutMs) * time.Millisecond
}

// TransitionBudget returns the maximum dwell time for the transitioning state.
func (s Session) TransitionBudget() time.Duration {
	return time.Duration(s.TransitionBudgetMs) * time.Millisecond
}

// Retry holds the backoff policy applied to transient recognizer failures.
type Retry struct {
	MaxRetries  int     `toml:"max_retries"`
	BaseDelayMs int     `toml:"base_delay_ms"`
	MaxDelayMs  int     `toml:"max_delay_ms"`
	Multiplier  float64 `toml:"multiplier"`
}

// BaseDelay returns the first retry delay as a duration.
func (r Retry) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the retry delay ceiling as a duration.
func (r Retry) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

// Quality holds the frame-quality aggregation settings.
type Quality struct {
	// WindowSize is the ring buffer capacity in samples.
	WindowSize int `toml:"window_size"`
	// MinSamples is the minimum buffered samples before a verdict is usable.
	MinSamples int `toml:"min_samples"`
	// InsufficientStreak is the consecutive low-score sample count required
	// before the verdict flips to insufficient (hysteresis).
	InsufficientStreak int     `toml:"insufficient_streak"`
	BlurWeight         float64 `toml:"blur_weight"`
	BrightnessWeight   float64 `toml:"brightness_weight"`
	DocWeight          float64 `toml:"doc_weight"`
}

// Budget holds the advisory resource limits monitored per session.
type Budget struct {
	MaxMemoryDeltaMB int `toml:"max_memory_delta_mb"`
	MaxCPUPercent    int `toml:"max_cpu_percent"`
	// Enforce turns budget breaches into session failures instead of alerts.
	Enforce bool `toml:"enforce"`
}

// Journal holds the settings for the local session journal.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for idlens.
//
// Sections by subsystem:
//   - Paths: data and log directories
//   - Session: phase timeouts, transition budget, fallback switch
//   - Retry: transient-failure backoff policy
//   - Quality: frame quality window, weights, and hysteresis
//   - Budget: advisory memory/CPU limits
//   - Journal: local session history
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Session Session `toml:"session"`
	Retry   Retry   `toml:"retry"`
	Quality Quality `toml:"quality"`
	Budget  Budget  `toml:"budget"`
	Journal Journal `toml:"journal"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/idlens/config.toml")
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and out-of-range values rejected.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("idlens.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the journal and logs need.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the sqlite database location for the session journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.DataDir, "journal.db")
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", trimmed, err)
	}
	return abs, nil
}
