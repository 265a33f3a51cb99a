package scripted_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"idlens/internal/recognizer"
	"idlens/internal/recognizer/scripted"
	"idlens/internal/scanerr"
)

const sampleScenario = `
name = "barcode glare then success"
frame_interval_ms = 1

[[frames]]
count = 3
blur = 0.9
brightness = 0.8
contrast = 0.8
doc_confidence = 0.95

[barcode]
[[barcode.attempts]]
outcome = "transient"
latency_ms = 1

[[barcode.attempts]]
outcome = "success"
latency_ms = 1
confidence = 0.92
[barcode.attempts.fields]
first_name = "JOHN"
license_number = "d1234567"

[ocr]
outcome = "success"
extract_latency_ms = 1
[ocr.fields]
first_name = "JOHN  QUINCY"
`

func mustParse(t *testing.T, raw string) *scripted.Scenario {
	t.Helper()
	scenario, err := scripted.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return scenario
}

func TestDecoderReplaysAttempts(t *testing.T) {
	scenario := mustParse(t, sampleScenario)
	decoder := scripted.NewDecoder(scenario)
	ctx := context.Background()

	_, err := decoder.Decode(ctx, recognizer.Frame{})
	if !scanerr.IsTransient(err) {
		t.Fatalf("first attempt should be transient, got %v", err)
	}

	result, err := decoder.Decode(ctx, recognizer.Frame{})
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if result.Confidence != 0.92 {
		t.Fatalf("confidence = %f", result.Confidence)
	}
	if result.Payload.Fields["first_name"] != "John" {
		t.Fatalf("name not normalized: %q", result.Payload.Fields["first_name"])
	}
	if result.Payload.Fields["license_number"] != "D1234567" {
		t.Fatalf("field not normalized: %q", result.Payload.Fields["license_number"])
	}

	// Script exhausted: the last attempt repeats.
	if _, err := decoder.Decode(ctx, recognizer.Frame{}); err != nil {
		t.Fatalf("repeated attempt: %v", err)
	}
}

func TestHangOutcomeHonorsContext(t *testing.T) {
	scenario := mustParse(t, `
[barcode]
[[barcode.attempts]]
outcome = "hang"
`)
	decoder := scripted.NewDecoder(scenario)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := decoder.Decode(ctx, recognizer.Frame{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestOCRRoundTrip(t *testing.T) {
	scenario := mustParse(t, sampleScenario)
	ocr := scripted.NewOCR(scenario)
	ctx := context.Background()

	if err := ocr.Warm(ctx); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	observations, err := ocr.Extract(ctx, recognizer.Frame{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(observations) != 1 {
		t.Fatalf("observations = %d", len(observations))
	}
	license, err := ocr.Parse(ctx, observations)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if license.Kind != "ocr" {
		t.Fatalf("kind = %q", license.Kind)
	}
	if license.Fields["first_name"] != "John Quincy" {
		t.Fatalf("parsed name = %q", license.Fields["first_name"])
	}
}

func TestSourceEmitsScriptedFrames(t *testing.T) {
	scenario := mustParse(t, sampleScenario)
	source := scripted.NewSource(scenario)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var events []recognizer.FrameEvent
	for event := range source.Frames(ctx) {
		events = append(events, event)
	}
	if len(events) != 3 {
		t.Fatalf("frames = %d", len(events))
	}
	if events[0].Quality.DocConfidence != 0.95 {
		t.Fatalf("quality = %+v", events[0].Quality)
	}
	if events[2].Frame.Index != 2 {
		t.Fatalf("index = %d", events[2].Frame.Index)
	}
}

func TestParseRejectsUnknownOutcome(t *testing.T) {
	_, err := scripted.Parse([]byte(`
[barcode]
[[barcode.attempts]]
outcome = "explode"
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParseRequiresBarcodeAttempt(t *testing.T) {
	if _, err := scripted.Parse([]byte(`name = "empty"`)); err == nil {
		t.Fatal("expected validation error")
	}
}
