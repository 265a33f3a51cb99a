package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// Standardized structured logging keys.
const (
	// FieldComponent names the emitting component.
	FieldComponent = "component"
	// FieldSessionID carries the scan session identifier.
	FieldSessionID = "session_id"
	// FieldPhase names the active session phase (barcode, transition, ocr).
	FieldPhase = "phase"
	// FieldAttempt is the 1-based recognizer attempt number.
	FieldAttempt = "attempt"
	// FieldState carries a SessionState value.
	FieldState = "state"
	// FieldMode carries a ScanMode value.
	FieldMode = "mode"
	// FieldEventType categorizes log records for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step when something goes wrong.
	FieldErrorHint = "error_hint"
	// FieldAlert flags advisory conditions that should stand out.
	FieldAlert = "alert"
)

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// WithComponent returns a logger tagged with a standardized component
// attribute. A nil base falls back to a no-op logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
