package state

// SessionState identifies what the scan session is doing right now. Exactly
// one state is active at any instant.
type SessionState string

const (
	StateIdle            SessionState = "idle"
	StateScanningBarcode SessionState = "scanning_barcode"
	StateTransitioning   SessionState = "transitioning"
	StateScanningOCR     SessionState = "scanning_ocr"
	StateSucceeded       SessionState = "succeeded"
	StateFailed          SessionState = "failed"
	StateCancelled       SessionState = "cancelled"
)

// Terminal reports whether the state ends the session.
func (s SessionState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// ScanMode identifies which recognition strategy is authoritative.
type ScanMode string

const (
	ModeBarcode ScanMode = "barcode"
	ModeOCR     ScanMode = "ocr"
)

// Event names a cause for a state transition.
type Event string

const (
	EventStart              Event = "start"
	EventBarcodeSucceeded   Event = "barcode_succeeded"
	EventBarcodeTimedOut    Event = "barcode_timed_out"
	EventBarcodeFailed      Event = "barcode_failed"
	EventTransitionComplete Event = "transition_complete"
	EventOCRSucceeded       Event = "ocr_succeeded"
	EventOCRTimedOut        Event = "ocr_timed_out"
	EventOCRFailed          Event = "ocr_failed"
	EventCancel             Event = "cancel"
)
