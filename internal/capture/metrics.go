package capture

import (
	"time"

	"idlens/internal/state"
)

// Metrics is the append-only record accumulated over one scan session. It is
// created at session start, finalized exactly once when a terminal state is
// reached, and immutable afterwards.
type Metrics struct {
	SessionID  string
	StartedAt  time.Time
	FinishedAt time.Time

	BarcodeDuration    time.Duration
	TransitionDuration time.Duration
	OCRDuration        time.Duration
	TotalDuration      time.Duration

	BarcodeAttempts int
	OCRAttempts     int

	PeakMemoryDeltaBytes int64
	PeakCPUPercent       float64

	QualityScore float64

	Outcome   state.SessionState
	FinalMode state.ScanMode
	ErrorCode string

	Finalized bool
}

// Empty reports whether the metrics belong to a session that never ran.
func (m Metrics) Empty() bool {
	return m.SessionID == "" && m.StartedAt.IsZero() && !m.Finalized
}
