package journal

import (
	"context"
	"testing"
	"time"

	"idlens/internal/capture"
	"idlens/internal/config"
	"idlens/internal/state"
)

func testStore(t *testing.T) (*Store, *config.Config) {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.DataDir = dir
	cfg.Paths.LogDir = dir

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, &cfg
}

func sampleRecord(id string) Record {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return Record{
		SessionID:       id,
		StartedAt:       now.Add(-2 * time.Second),
		FinishedAt:      now,
		Outcome:         string(state.StateSucceeded),
		FinalMode:       string(state.ModeBarcode),
		BarcodeMs:       480,
		TotalMs:         510,
		BarcodeAttempts: 1,
		QualityScore:    0.91,
	}
}

func TestAppendAndRecentRoundTrip(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	first := sampleRecord("session-1")
	second := sampleRecord("session-2")
	second.Outcome = string(state.StateFailed)
	second.ErrorCode = "TimeoutError"

	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("Append first: %v", err)
	}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("Append second: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SessionID != "session-2" {
		t.Fatalf("newest first: got %s", records[0].SessionID)
	}
	if records[0].ErrorCode != "TimeoutError" {
		t.Fatalf("error code = %q, want TimeoutError", records[0].ErrorCode)
	}
	if records[1].BarcodeMs != 480 || records[1].QualityScore != 0.91 {
		t.Fatalf("round-trip mismatch: %+v", records[1])
	}
	if !records[1].StartedAt.Before(records[1].FinishedAt) {
		t.Fatalf("timestamps not preserved: %+v", records[1])
	}
}

func TestAppendRejectsMissingSessionID(t *testing.T) {
	store, _ := testStore(t)
	rec := sampleRecord("")
	if err := store.Append(context.Background(), rec); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.DataDir = dir
	cfg.Paths.LogDir = dir

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Append(context.Background(), sampleRecord("session-1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	records, err := reopened.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent after reopen: %v", err)
	}
	if len(records) != 1 || records[0].SessionID != "session-1" {
		t.Fatalf("records after reopen = %+v", records)
	}
}

func TestClear(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, sampleRecord("session-1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	records, err := store.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records after clear, want 0", len(records))
	}
}

func TestFromMetrics(t *testing.T) {
	metrics := capture.Metrics{
		SessionID:       "session-9",
		StartedAt:       time.Now().Add(-time.Second),
		FinishedAt:      time.Now(),
		BarcodeDuration: 450 * time.Millisecond,
		OCRDuration:     800 * time.Millisecond,
		TotalDuration:   1400 * time.Millisecond,
		BarcodeAttempts: 2,
		OCRAttempts:     1,
		Outcome:         state.StateSucceeded,
		FinalMode:       state.ModeOCR,
		QualityScore:    0.72,
		Finalized:       true,
	}
	rec := FromMetrics(metrics)
	if rec.SessionID != "session-9" {
		t.Fatalf("session id = %s", rec.SessionID)
	}
	if rec.BarcodeMs != 450 || rec.OCRMs != 800 || rec.TotalMs != 1400 {
		t.Fatalf("durations = %d/%d/%d", rec.BarcodeMs, rec.OCRMs, rec.TotalMs)
	}
	if rec.Outcome != "succeeded" || rec.FinalMode != "ocr" {
		t.Fatalf("outcome/mode = %s/%s", rec.Outcome, rec.FinalMode)
	}
}
