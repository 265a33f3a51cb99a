package quality

import (
	"time"

	"idlens/internal/config"
	"idlens/internal/state"
)

// Sample carries one frame's quality measurements. All scores are normalized
// to [0, 1] by the capture layer; blur is inverted upstream so higher is
// sharper.
type Sample struct {
	Blur          float64
	Brightness    float64
	Contrast      float64
	DocConfidence float64
	Timestamp     time.Time
}

// Verdict summarizes the buffered samples. It has no lifecycle of its own;
// a fresh one is derived on every call.
type Verdict struct {
	// Score is the smoothed composite quality in [0, 1].
	Score float64
	// Mode is the recommended recognition strategy.
	Mode state.ScanMode
	// Insufficient is set when too few samples are buffered or the composite
	// has stayed under the threshold for the configured streak.
	Insufficient bool
	// Samples is the number of frames currently buffered.
	Samples int
}

// Processor aggregates per-frame quality samples into a smoothed verdict.
// Ingestion is O(1): samples land in a fixed-capacity ring buffer and the
// oldest is evicted when full. The processor never triggers transitions;
// it only advises the session controller.
type Processor struct {
	cfg config.Quality

	threshold float64

	buf   []Sample
	next  int
	count int

	// lowStreak counts consecutive composites under the threshold, the
	// hysteresis that keeps single noisy frames from flipping the verdict.
	lowStreak int
}

// NewProcessor builds a processor for one scan session.
func NewProcessor(cfg config.Quality, confidenceThreshold float64) *Processor {
	size := cfg.WindowSize
	if size <= 0 {
		size = 1
	}
	return &Processor{
		cfg:       cfg,
		threshold: confidenceThreshold,
		buf:       make([]Sample, size),
	}
}

// Ingest appends a sample, evicting the oldest when the window is full.
func (p *Processor) Ingest(sample Sample) {
	p.buf[p.next] = sample
	p.next = (p.next + 1) % len(p.buf)
	if p.count < len(p.buf) {
		p.count++
	}
	if p.composite() < p.threshold {
		p.lowStreak++
	} else {
		p.lowStreak = 0
	}
}

// Verdict derives the current advisory from buffered samples. It is a pure
// read; calling it repeatedly without ingesting returns the same value.
func (p *Processor) Verdict() Verdict {
	score := p.composite()
	verdict := Verdict{
		Score:   score,
		Mode:    state.ModeBarcode,
		Samples: p.count,
	}
	if p.count < p.cfg.MinSamples {
		verdict.Insufficient = true
		return verdict
	}
	if p.lowStreak >= p.cfg.InsufficientStreak {
		verdict.Insufficient = true
	}
	if score < p.threshold {
		verdict.Mode = state.ModeOCR
	}
	return verdict
}

// Reset clears the buffer and hysteresis counters.
func (p *Processor) Reset() {
	p.next = 0
	p.count = 0
	p.lowStreak = 0
}

// composite is the moving average of the per-sample weighted scores across
// the buffered window.
func (p *Processor) composite() float64 {
	if p.count == 0 {
		return 0
	}
	totalWeight := p.cfg.BlurWeight + p.cfg.BrightnessWeight + p.cfg.DocWeight
	if totalWeight <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < p.count; i++ {
		s := p.buf[i]
		// Brightness and contrast share the illumination weight.
		illumination := (clamp01(s.Brightness) + clamp01(s.Contrast)) / 2
		score := p.cfg.BlurWeight*clamp01(s.Blur) +
			p.cfg.BrightnessWeight*illumination +
			p.cfg.DocWeight*clamp01(s.DocConfidence)
		sum += score / totalWeight
	}
	return sum / float64(p.count)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
