package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	dataDir := filepath.Join(base, "data")
	logDir := filepath.Join(base, "logs")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[session]
barcode_timeout_ms = 300
ocr_timeout_ms = 300
total_timeout_ms = 1200
transition_budget_ms = 100

[retry]
max_retries = 1
base_delay_ms = 5
max_delay_ms = 10

[logging]
level = "error"
`, dataDir, logDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, dataDir: dataDir}
}

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

const barcodeSuccessScenario = `name = "barcode-success"
frame_interval_ms = 5

[[frames]]
count = 5
blur = 0.9
brightness = 0.9
contrast = 0.9
doc_confidence = 0.9

[[barcode.attempts]]
outcome = "success"
latency_ms = 20
confidence = 0.95

[barcode.attempts.fields]
first_name = "JANE"
last_name = "DOE"
`

const ocrFallbackScenario = `name = "ocr-fallback"
frame_interval_ms = 5

[[frames]]
count = 5
blur = 0.4
brightness = 0.5
contrast = 0.5
doc_confidence = 0.4

[[barcode.attempts]]
outcome = "failure"
latency_ms = 10

[ocr]
outcome = "success"
warm_latency_ms = 10
extract_latency_ms = 20

[ocr.fields]
first_name = "JANE"
`

const bothFailScenario = `name = "both-fail"
frame_interval_ms = 5

[[barcode.attempts]]
outcome = "failure"
latency_ms = 10

[ocr]
outcome = "failure"
extract_latency_ms = 10
`
