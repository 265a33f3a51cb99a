package state

import (
	"fmt"
	"sync"
)

// TransitionError reports a rejected transition request. The machine state is
// unchanged when one is returned.
type TransitionError struct {
	From  SessionState
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: event %q in state %q", e.Event, e.From)
}

// Listener observes successful transitions. Listeners run synchronously, in
// registration order, before Request returns.
type Listener func(previous, next SessionState, reason string)

// Machine is the single source of truth for the session state. It validates
// and executes transitions against a fixed table and notifies listeners on
// every successful transition.
type Machine struct {
	mu        sync.Mutex
	current   SessionState
	table     map[SessionState]map[Event]SessionState
	listeners []Listener
}

// NewMachine builds a machine in StateIdle. When fallbackEnabled is false,
// barcode failure and barcode timeout terminate the session instead of
// entering the transitioning state.
func NewMachine(fallbackEnabled bool) *Machine {
	barcodeNext := map[Event]SessionState{
		EventBarcodeSucceeded: StateSucceeded,
	}
	if fallbackEnabled {
		barcodeNext[EventBarcodeTimedOut] = StateTransitioning
		barcodeNext[EventBarcodeFailed] = StateTransitioning
	} else {
		barcodeNext[EventBarcodeTimedOut] = StateFailed
		barcodeNext[EventBarcodeFailed] = StateFailed
	}

	return &Machine{
		current: StateIdle,
		table: map[SessionState]map[Event]SessionState{
			StateIdle: {
				EventStart: StateScanningBarcode,
			},
			StateScanningBarcode: barcodeNext,
			StateTransitioning: {
				EventTransitionComplete: StateScanningOCR,
			},
			StateScanningOCR: {
				EventOCRSucceeded: StateSucceeded,
				EventOCRTimedOut:  StateFailed,
				EventOCRFailed:    StateFailed,
			},
		},
	}
}

// Current returns the active state. It is consistent immediately after any
// Request call returns.
func (m *Machine) Current() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers a listener for successful transitions.
func (m *Machine) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// Request validates the event against the current state and executes the
// transition. Illegal events return a *TransitionError and leave the state
// untouched. EventCancel is legal from every non-terminal state.
func (m *Machine) Request(event Event, reason string) (SessionState, error) {
	m.mu.Lock()
	previous := m.current

	var next SessionState
	switch {
	case event == EventCancel && !previous.Terminal():
		next = StateCancelled
	default:
		target, ok := m.table[previous][event]
		if !ok {
			m.mu.Unlock()
			return previous, &TransitionError{From: previous, Event: event}
		}
		next = target
	}

	m.current = next
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(previous, next, reason)
	}
	return next, nil
}

// Reset returns the machine to StateIdle without notifying listeners. Only
// the owning controller calls this, as part of a full session reset.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = StateIdle
}
