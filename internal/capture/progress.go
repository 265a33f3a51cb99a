package capture

import (
	"time"

	"idlens/internal/state"
)

// Progress is the caller-facing snapshot recomputed on every state or quality
// change. It is derived data and never persisted.
type Progress struct {
	State state.SessionState
	// Percent is a coarse completion estimate in [0, 100].
	Percent int
	// StatusKey is a stable, translatable identifier for the current status.
	StatusKey string
	Elapsed   time.Duration
}

func statusKey(s state.SessionState) string {
	switch s {
	case state.StateIdle:
		return "status.ready"
	case state.StateScanningBarcode:
		return "status.scanning_barcode"
	case state.StateTransitioning:
		return "status.switching_to_ocr"
	case state.StateScanningOCR:
		return "status.scanning_text"
	case state.StateSucceeded:
		return "status.done"
	case state.StateFailed:
		return "status.failed"
	case state.StateCancelled:
		return "status.cancelled"
	default:
		return "status.unknown"
	}
}

// estimatePercent maps state plus in-phase elapsed time onto a monotonic
// completion estimate. The barcode phase owns 0-60, the transition 60-70,
// and the OCR phase 70-95; terminal states snap to their endpoint.
func estimatePercent(s state.SessionState, phaseElapsed, phaseBudget time.Duration) int {
	ratio := 0.0
	if phaseBudget > 0 {
		ratio = float64(phaseElapsed) / float64(phaseBudget)
		if ratio > 1 {
			ratio = 1
		}
	}
	switch s {
	case state.StateIdle:
		return 0
	case state.StateScanningBarcode:
		return int(60 * ratio)
	case state.StateTransitioning:
		return 65
	case state.StateScanningOCR:
		return 70 + int(25*ratio)
	case state.StateSucceeded:
		return 100
	default:
		return 95
	}
}
