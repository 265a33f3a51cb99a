package scripted

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Outcome names for scripted recognizer attempts.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeTransient = "transient"
	OutcomeHang      = "hang"
)

// Scenario scripts an entire capture session: the frame quality series plus
// the outcome of every recognizer attempt.
type Scenario struct {
	Name            string        `toml:"name"`
	FrameIntervalMs int           `toml:"frame_interval_ms"`
	Frames          []FrameSpec   `toml:"frames"`
	Barcode         BarcodeScript `toml:"barcode"`
	OCR             OCRScript     `toml:"ocr"`
}

// FrameSpec emits Count frames with identical quality measurements.
type FrameSpec struct {
	Count         int     `toml:"count"`
	Blur          float64 `toml:"blur"`
	Brightness    float64 `toml:"brightness"`
	Contrast      float64 `toml:"contrast"`
	DocConfidence float64 `toml:"doc_confidence"`
}

// BarcodeScript scripts successive barcode decode attempts. When attempts run
// out, the last one repeats.
type BarcodeScript struct {
	Attempts []AttemptSpec `toml:"attempts"`
}

// AttemptSpec scripts one recognizer call.
type AttemptSpec struct {
	Outcome    string            `toml:"outcome"`
	LatencyMs  int               `toml:"latency_ms"`
	Confidence float64           `toml:"confidence"`
	Fields     map[string]string `toml:"fields"`
}

// OCRScript scripts the fallback path.
type OCRScript struct {
	Outcome          string            `toml:"outcome"`
	WarmLatencyMs    int               `toml:"warm_latency_ms"`
	ExtractLatencyMs int               `toml:"extract_latency_ms"`
	ParseLatencyMs   int               `toml:"parse_latency_ms"`
	Fields           map[string]string `toml:"fields"`
}

// FrameInterval returns the frame cadence, defaulting to ~30fps.
func (s *Scenario) FrameInterval() time.Duration {
	if s.FrameIntervalMs <= 0 {
		return 33 * time.Millisecond
	}
	return time.Duration(s.FrameIntervalMs) * time.Millisecond
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates scenario TOML.
func Parse(raw []byte) (*Scenario, error) {
	var scenario Scenario
	if err := toml.Unmarshal(raw, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := scenario.validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	if len(s.Barcode.Attempts) == 0 {
		return fmt.Errorf("scenario %q: at least one barcode attempt is required", s.Name)
	}
	for i, attempt := range s.Barcode.Attempts {
		if err := validOutcome(attempt.Outcome); err != nil {
			return fmt.Errorf("scenario %q: barcode attempt %d: %w", s.Name, i+1, err)
		}
	}
	if s.OCR.Outcome != "" {
		if err := validOutcome(s.OCR.Outcome); err != nil {
			return fmt.Errorf("scenario %q: ocr: %w", s.Name, err)
		}
	}
	return nil
}

func validOutcome(outcome string) error {
	switch strings.TrimSpace(outcome) {
	case OutcomeSuccess, OutcomeFailure, OutcomeTransient, OutcomeHang:
		return nil
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}
}
