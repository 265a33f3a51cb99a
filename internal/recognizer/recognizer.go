package recognizer

import (
	"context"
	"time"

	"idlens/internal/quality"
)

// Frame is one captured image handed to a recognizer. The pixel data is
// opaque to the orchestration core.
type Frame struct {
	Index      int
	CapturedAt time.Time
	Data       []byte
}

// FrameEvent pairs a captured frame with its measured quality, as pushed by
// a frame source at the capture frame rate.
type FrameEvent struct {
	Frame   Frame
	Quality quality.Sample
}

// License is the normalized document payload. The orchestrator treats it as
// opaque; field semantics belong to the recognizers that produce it.
type License struct {
	// Kind identifies the document layout, e.g. "aamva".
	Kind   string
	Fields map[string]string
}

// BarcodeResult is a successful structured-code decode.
type BarcodeResult struct {
	Payload    *License
	Confidence float64
}

// BarcodeDecoder is the fast structured-code recognition path.
type BarcodeDecoder interface {
	Decode(ctx context.Context, frame Frame) (BarcodeResult, error)
}

// Observation is one piece of recognized text with its placement hint.
type Observation struct {
	Text       string
	Confidence float64
	Line       int
}

// TextRecognizer is the optical-text recognition path used as fallback.
type TextRecognizer interface {
	Extract(ctx context.Context, frame Frame) ([]Observation, error)
}

// FieldParser turns raw text observations into a normalized license payload.
type FieldParser interface {
	Parse(ctx context.Context, observations []Observation) (*License, error)
}

// Warmer is implemented by recognizers that benefit from preparation ahead of
// their first call. The controller invokes it inside the transition window.
type Warmer interface {
	Warm(ctx context.Context) error
}
