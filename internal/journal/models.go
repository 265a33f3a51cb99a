package journal

import (
	"time"

	"idlens/internal/capture"
)

// Record is one finished session as stored on disk. Durations are kept in
// milliseconds so the schema stays readable from the sqlite shell.
type Record struct {
	SessionID  string
	StartedAt  time.Time
	FinishedAt time.Time

	Outcome   string
	FinalMode string
	ErrorCode string

	BarcodeMs    int64
	TransitionMs int64
	OCRMs        int64
	TotalMs      int64

	BarcodeAttempts int
	OCRAttempts     int

	PeakMemoryBytes int64
	PeakCPUPercent  float64
	QualityScore    float64
}

// FromMetrics converts finalized session metrics into a journal record.
func FromMetrics(m capture.Metrics) Record {
	return Record{
		SessionID:       m.SessionID,
		StartedAt:       m.StartedAt,
		FinishedAt:      m.FinishedAt,
		Outcome:         string(m.Outcome),
		FinalMode:       string(m.FinalMode),
		ErrorCode:       m.ErrorCode,
		BarcodeMs:       m.BarcodeDuration.Milliseconds(),
		TransitionMs:    m.TransitionDuration.Milliseconds(),
		OCRMs:           m.OCRDuration.Milliseconds(),
		TotalMs:         m.TotalDuration.Milliseconds(),
		BarcodeAttempts: m.BarcodeAttempts,
		OCRAttempts:     m.OCRAttempts,
		PeakMemoryBytes: m.PeakMemoryDeltaBytes,
		PeakCPUPercent:  m.PeakCPUPercent,
		QualityScore:    m.QualityScore,
	}
}
