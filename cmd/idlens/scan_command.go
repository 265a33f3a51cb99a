package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"idlens/internal/capture"
	"idlens/internal/config"
	"idlens/internal/journal"
	"idlens/internal/logging"
	"idlens/internal/recognizer/scripted"
	"idlens/internal/state"
)

type scanOutput struct {
	SessionID string            `json:"session_id"`
	Scenario  string            `json:"scenario"`
	Outcome   string            `json:"outcome"`
	FinalMode string            `json:"final_mode,omitempty"`
	Success   bool              `json:"success"`
	Fields    map[string]string `json:"fields,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
	ErrorText string            `json:"error_text,omitempty"`
	TotalMs   int64             `json:"total_ms"`
	BarcodeMs int64             `json:"barcode_ms"`
	OCRMs     int64             `json:"ocr_ms"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var scenarioPath string
	var jsonOut bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan session against a scripted scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			scenario, err := scripted.Load(strings.TrimSpace(scenarioPath))
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}

			ocr := scripted.NewOCR(scenario)
			controller := capture.New(cfg, scripted.NewDecoder(scenario), ocr, ocr, logger)

			out := cmd.OutOrStdout()
			if !quiet && !jsonOut {
				controller.OnModeChange(func(mode state.ScanMode, reason string) {
					fmt.Fprintf(out, "Switching to %s (%s)\n", mode, reason)
				})
				var progressMu sync.Mutex
				var lastState state.SessionState
				controller.OnProgress(func(p capture.Progress) {
					progressMu.Lock()
					defer progressMu.Unlock()
					if p.State == lastState {
						return
					}
					lastState = p.State
					fmt.Fprintf(out, "[%3d%%] %s\n", p.Percent, p.StatusKey)
				})
			}

			result, err := controller.Start(cmd.Context(), scripted.NewSource(scenario))
			if err != nil {
				return fmt.Errorf("run session: %w", err)
			}
			metrics := controller.Metrics()

			if cfg.Journal.Enabled {
				if err := appendJournal(cmd.Context(), cfg, metrics); err != nil {
					logger.Warn("journal append failed", logging.Error(err))
				}
			}

			if jsonOut {
				return writeJSON(out, buildScanOutput(scenario.Name, result, metrics))
			}
			return printScanResult(out, result, metrics)
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "Path to a scripted scenario TOML file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress notices")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func appendJournal(ctx context.Context, cfg *config.Config, metrics capture.Metrics) error {
	store, err := journal.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Append(ctx, journal.FromMetrics(metrics))
}

func buildScanOutput(scenarioName string, result capture.Result, metrics capture.Metrics) scanOutput {
	output := scanOutput{
		SessionID: metrics.SessionID,
		Scenario:  scenarioName,
		Outcome:   string(metrics.Outcome),
		FinalMode: string(metrics.FinalMode),
		Success:   result.Success,
		TotalMs:   metrics.TotalDuration.Milliseconds(),
		BarcodeMs: metrics.BarcodeDuration.Milliseconds(),
		OCRMs:     metrics.OCRDuration.Milliseconds(),
	}
	if result.Success && result.Data != nil {
		output.Fields = result.Data.Fields
	}
	if result.Err != nil {
		output.ErrorCode = result.Err.Code
		output.ErrorText = result.Err.UserMessage
	}
	return output
}

func printScanResult(out io.Writer, result capture.Result, metrics capture.Metrics) error {
	if !result.Success {
		fmt.Fprintf(out, "Session %s %s after %s\n", metrics.SessionID, metrics.Outcome, metrics.TotalDuration.Round(10*time.Millisecond))
		return fmt.Errorf("%s: %s", result.Err.Code, result.Err.UserMessage)
	}

	fmt.Fprintf(out, "Session %s succeeded via %s in %s\n", metrics.SessionID, metrics.FinalMode, metrics.TotalDuration.Round(10*time.Millisecond))
	if result.Data == nil || len(result.Data.Fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(result.Data.Fields))
	for key := range result.Data.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, result.Data.Fields[key]})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
