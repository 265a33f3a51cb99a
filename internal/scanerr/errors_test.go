package scanerr_test

import (
	"context"
	"errors"
	"testing"

	"idlens/internal/scanerr"
)

func TestWrapTagsSentinel(t *testing.T) {
	base := errors.New("decoder exploded")
	err := scanerr.Wrap(scanerr.ErrRecognition, "barcode", "decode", "pdf417 pass", base)
	if !errors.Is(err, scanerr.ErrRecognition) {
		t.Fatalf("expected ErrRecognition marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to remain reachable, got %v", err)
	}
}

func TestWrapDefaultsToUnknown(t *testing.T) {
	err := scanerr.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, scanerr.ErrUnknown) {
		t.Fatalf("nil marker should map to ErrUnknown, got %v", err)
	}
}

func TestTransientMarking(t *testing.T) {
	err := scanerr.Transient(scanerr.Wrap(scanerr.ErrRecognition, "barcode", "decode", "glare", nil))
	if !scanerr.IsTransient(err) {
		t.Fatal("expected transient marker")
	}
	if !errors.Is(err, scanerr.ErrRecognition) {
		t.Fatal("transient wrapper must preserve the sentinel")
	}
	if scanerr.IsTransient(scanerr.ErrRecognition) {
		t.Fatal("unmarked sentinel must not be transient")
	}
	if scanerr.Transient(nil) != nil {
		t.Fatal("Transient(nil) must stay nil")
	}
}

func TestClassifyCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"timeout", scanerr.Wrap(scanerr.ErrTimeout, "barcode", "decode", "", nil), "TimeoutError"},
		{"deadline", context.DeadlineExceeded, "TimeoutError"},
		{"cancelled", scanerr.ErrCancelled, "CancelledByCaller"},
		{"ctx cancelled", context.Canceled, "CancelledByCaller"},
		{"recognition", scanerr.Wrap(scanerr.ErrRecognition, "ocr", "parse", "", nil), "RecognitionFailure"},
		{"low confidence", scanerr.ErrLowConfidence, "LowConfidence"},
		{"transition", scanerr.ErrTransitionBudget, "TransitionBudgetExceeded"},
		{"resource", scanerr.ErrResourceBudget, "ResourceBudgetExceeded"},
		{"unknown", errors.New("collaborator panic"), "UnknownError"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scanErr := scanerr.Classify(tc.err)
			if scanErr == nil {
				t.Fatal("expected a classification")
			}
			if scanErr.Code != tc.code {
				t.Fatalf("code = %q, want %q", scanErr.Code, tc.code)
			}
			if scanErr.UserMessage == "" || scanErr.UserMessage == scanErr.Message {
				t.Fatalf("user message must be distinct from technical message: %+v", scanErr)
			}
			if !scanErr.Recoverable {
				t.Fatalf("all classified errors are recoverable, got %+v", scanErr)
			}
		})
	}
	if scanerr.Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}
}

func TestClassifyPassesThroughScanError(t *testing.T) {
	orig := &scanerr.ScanError{Code: "TimeoutError", Message: "m", UserMessage: "u", Recoverable: true}
	if got := scanerr.Classify(orig); got != orig {
		t.Fatalf("expected identity pass-through, got %+v", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = scanerr.WithSessionID(ctx, "abc-123")
	ctx = scanerr.WithPhase(ctx, "scanning_barcode")
	ctx = scanerr.WithAttempt(ctx, 2)

	if id, ok := scanerr.SessionIDFromContext(ctx); !ok || id != "abc-123" {
		t.Fatalf("session id = %q, %v", id, ok)
	}
	if phase, ok := scanerr.PhaseFromContext(ctx); !ok || phase != "scanning_barcode" {
		t.Fatalf("phase = %q, %v", phase, ok)
	}
	if attempt, ok := scanerr.AttemptFromContext(ctx); !ok || attempt != 2 {
		t.Fatalf("attempt = %d, %v", attempt, ok)
	}
	if _, ok := scanerr.SessionIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not yield a session id")
	}
}
