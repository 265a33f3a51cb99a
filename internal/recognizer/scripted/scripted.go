package scripted

import (
	"context"
	"strings"
	"sync"
	"time"

	"idlens/internal/quality"
	"idlens/internal/recognizer"
	"idlens/internal/scanerr"
	"idlens/internal/textutil"
)

// Source replays the scenario's frame quality series at the scripted cadence.
type Source struct {
	scenario *Scenario
}

// NewSource builds a frame source for the scenario.
func NewSource(scenario *Scenario) *Source {
	return &Source{scenario: scenario}
}

// Frames emits scripted frames until the series is exhausted or ctx ends.
func (s *Source) Frames(ctx context.Context) <-chan recognizer.FrameEvent {
	out := make(chan recognizer.FrameEvent)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.scenario.FrameInterval())
		defer ticker.Stop()
		index := 0
		for _, spec := range s.scenario.Frames {
			for i := 0; i < spec.Count; i++ {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				event := recognizer.FrameEvent{
					Frame: recognizer.Frame{Index: index, CapturedAt: time.Now()},
					Quality: quality.Sample{
						Blur:          spec.Blur,
						Brightness:    spec.Brightness,
						Contrast:      spec.Contrast,
						DocConfidence: spec.DocConfidence,
						Timestamp:     time.Now(),
					},
				}
				select {
				case <-ctx.Done():
					return
				case out <- event:
				}
				index++
			}
		}
	}()
	return out
}

// Decoder replays scripted barcode attempts in order; the final attempt
// repeats once the script runs out.
type Decoder struct {
	mu       sync.Mutex
	attempts []AttemptSpec
	next     int
}

// NewDecoder builds a scripted barcode decoder.
func NewDecoder(scenario *Scenario) *Decoder {
	return &Decoder{attempts: scenario.Barcode.Attempts}
}

func (d *Decoder) Decode(ctx context.Context, frame recognizer.Frame) (recognizer.BarcodeResult, error) {
	d.mu.Lock()
	attempt := d.attempts[d.next]
	if d.next < len(d.attempts)-1 {
		d.next++
	}
	d.mu.Unlock()

	if err := wait(ctx, attempt.Outcome, attempt.LatencyMs); err != nil {
		return recognizer.BarcodeResult{}, err
	}
	switch attempt.Outcome {
	case OutcomeSuccess:
		return recognizer.BarcodeResult{
			Payload:    buildLicense("aamva", attempt.Fields),
			Confidence: attempt.Confidence,
		}, nil
	case OutcomeTransient:
		return recognizer.BarcodeResult{}, scanerr.Transient(
			scanerr.Wrap(scanerr.ErrRecognition, "barcode", "decode", "scripted transient failure", nil))
	default:
		return recognizer.BarcodeResult{}, scanerr.Wrap(scanerr.ErrRecognition, "barcode", "decode", "scripted failure", nil)
	}
}

// OCR replays the scripted fallback path. It implements the text recognizer,
// field parser, and warm-up contracts.
type OCR struct {
	script OCRScript
}

// NewOCR builds a scripted OCR recognizer.
func NewOCR(scenario *Scenario) *OCR {
	return &OCR{script: scenario.OCR}
}

func (o *OCR) Warm(ctx context.Context) error {
	return wait(ctx, OutcomeSuccess, o.script.WarmLatencyMs)
}

func (o *OCR) Extract(ctx context.Context, frame recognizer.Frame) ([]recognizer.Observation, error) {
	if err := wait(ctx, o.script.Outcome, o.script.ExtractLatencyMs); err != nil {
		return nil, err
	}
	switch o.script.Outcome {
	case OutcomeSuccess:
		observations := make([]recognizer.Observation, 0, len(o.script.Fields))
		line := 0
		for key, value := range o.script.Fields {
			observations = append(observations, recognizer.Observation{
				Text:       key + ": " + value,
				Confidence: 0.9,
				Line:       line,
			})
			line++
		}
		return observations, nil
	case OutcomeTransient:
		return nil, scanerr.Transient(
			scanerr.Wrap(scanerr.ErrRecognition, "ocr", "extract", "scripted transient failure", nil))
	default:
		return nil, scanerr.Wrap(scanerr.ErrRecognition, "ocr", "extract", "scripted failure", nil)
	}
}

func (o *OCR) Parse(ctx context.Context, observations []recognizer.Observation) (*recognizer.License, error) {
	if err := wait(ctx, OutcomeSuccess, o.script.ParseLatencyMs); err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, scanerr.Wrap(scanerr.ErrRecognition, "ocr", "parse", "no observations", nil)
	}
	fields := make(map[string]string, len(observations))
	for _, obs := range observations {
		key, value, ok := strings.Cut(obs.Text, ":")
		if !ok {
			continue
		}
		fields[textutil.CollapseWhitespace(key)] = value
	}
	return buildLicense("ocr", fields), nil
}

func buildLicense(kind string, raw map[string]string) *recognizer.License {
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.ToLower(textutil.CollapseWhitespace(key))
		if strings.Contains(key, "name") {
			fields[key] = textutil.NormalizeName(value)
		} else {
			fields[key] = textutil.NormalizeField(value)
		}
	}
	return &recognizer.License{Kind: kind, Fields: fields}
}

// wait sleeps for the scripted latency, or until ctx ends. A hang outcome
// waits for cancellation and reports the context error.
func wait(ctx context.Context, outcome string, latencyMs int) error {
	if outcome == OutcomeHang {
		<-ctx.Done()
		return ctx.Err()
	}
	if latencyMs <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(latencyMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
