package state_test

import (
	"errors"
	"testing"

	"idlens/internal/state"
)

func TestHappyPathBarcode(t *testing.T) {
	m := state.NewMachine(true)
	if m.Current() != state.StateIdle {
		t.Fatalf("initial state = %s", m.Current())
	}
	if _, err := m.Request(state.EventStart, "caller"); err != nil {
		t.Fatalf("start: %v", err)
	}
	next, err := m.Request(state.EventBarcodeSucceeded, "confidence above threshold")
	if err != nil {
		t.Fatalf("barcode succeeded: %v", err)
	}
	if next != state.StateSucceeded || !next.Terminal() {
		t.Fatalf("next = %s", next)
	}
}

func TestFallbackSequence(t *testing.T) {
	m := state.NewMachine(true)
	steps := []struct {
		event state.Event
		want  state.SessionState
	}{
		{state.EventStart, state.StateScanningBarcode},
		{state.EventBarcodeTimedOut, state.StateTransitioning},
		{state.EventTransitionComplete, state.StateScanningOCR},
		{state.EventOCRSucceeded, state.StateSucceeded},
	}
	for _, step := range steps {
		next, err := m.Request(step.event, "test")
		if err != nil {
			t.Fatalf("%s: %v", step.event, err)
		}
		if next != step.want {
			t.Fatalf("%s: next = %s, want %s", step.event, next, step.want)
		}
	}
}

func TestFallbackDisabledGoesStraightToFailed(t *testing.T) {
	for _, event := range []state.Event{state.EventBarcodeFailed, state.EventBarcodeTimedOut} {
		m := state.NewMachine(false)
		if _, err := m.Request(state.EventStart, "test"); err != nil {
			t.Fatalf("start: %v", err)
		}
		next, err := m.Request(event, "test")
		if err != nil {
			t.Fatalf("%s: %v", event, err)
		}
		if next != state.StateFailed {
			t.Fatalf("%s: next = %s, want failed", event, next)
		}
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	m := state.NewMachine(true)
	_, err := m.Request(state.EventOCRSucceeded, "test")
	var transitionErr *state.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if transitionErr.From != state.StateIdle || transitionErr.Event != state.EventOCRSucceeded {
		t.Fatalf("unexpected error detail: %+v", transitionErr)
	}
	if m.Current() != state.StateIdle {
		t.Fatalf("state changed on rejected transition: %s", m.Current())
	}
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	reach := map[state.SessionState][]state.Event{
		state.StateIdle:            {},
		state.StateScanningBarcode: {state.EventStart},
		state.StateTransitioning:   {state.EventStart, state.EventBarcodeTimedOut},
		state.StateScanningOCR:     {state.EventStart, state.EventBarcodeTimedOut, state.EventTransitionComplete},
	}
	for from, events := range reach {
		m := state.NewMachine(true)
		for _, event := range events {
			if _, err := m.Request(event, "setup"); err != nil {
				t.Fatalf("setup %s: %v", event, err)
			}
		}
		if m.Current() != from {
			t.Fatalf("setup landed in %s, want %s", m.Current(), from)
		}
		next, err := m.Request(state.EventCancel, "caller")
		if err != nil {
			t.Fatalf("cancel from %s: %v", from, err)
		}
		if next != state.StateCancelled {
			t.Fatalf("cancel from %s: next = %s", from, next)
		}
	}
}

func TestCancelRejectedInTerminalState(t *testing.T) {
	m := state.NewMachine(true)
	m.Request(state.EventStart, "setup")
	m.Request(state.EventBarcodeSucceeded, "setup")
	if _, err := m.Request(state.EventCancel, "caller"); err == nil {
		t.Fatal("cancel must be rejected after a terminal state")
	}
	if m.Current() != state.StateSucceeded {
		t.Fatalf("terminal state mutated: %s", m.Current())
	}
}

func TestListenersRunInOrder(t *testing.T) {
	m := state.NewMachine(true)
	var calls []string
	m.Subscribe(func(prev, next state.SessionState, reason string) {
		calls = append(calls, "first:"+string(prev)+"->"+string(next)+":"+reason)
	})
	m.Subscribe(func(prev, next state.SessionState, reason string) {
		calls = append(calls, "second:"+string(prev)+"->"+string(next))
	})
	if _, err := m.Request(state.EventStart, "go"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("listener calls = %d", len(calls))
	}
	if calls[0] != "first:idle->scanning_barcode:go" {
		t.Fatalf("first call = %q", calls[0])
	}
	if calls[1] != "second:idle->scanning_barcode" {
		t.Fatalf("second call = %q", calls[1])
	}

	// Rejected transitions must not notify.
	calls = nil
	if _, err := m.Request(state.EventStart, "again"); err == nil {
		t.Fatal("expected rejection")
	}
	if len(calls) != 0 {
		t.Fatalf("listeners fired on rejected transition: %v", calls)
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	m := state.NewMachine(true)
	m.Request(state.EventStart, "setup")
	m.Request(state.EventCancel, "setup")
	m.Reset()
	if m.Current() != state.StateIdle {
		t.Fatalf("state after reset = %s", m.Current())
	}
	if _, err := m.Request(state.EventStart, "again"); err != nil {
		t.Fatalf("start after reset: %v", err)
	}
}
