package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"idlens/internal/budget"
	"idlens/internal/config"
	"idlens/internal/logging"
	"idlens/internal/quality"
	"idlens/internal/recognizer"
	"idlens/internal/scanerr"
	"idlens/internal/state"
	"idlens/internal/timeout"
)

// Input supplies captured frames and their quality measurements at the
// camera frame rate. The channel closes when the source runs dry.
type Input interface {
	Frames(ctx context.Context) <-chan recognizer.FrameEvent
}

// Controller drives one scan session end to end: it invokes the barcode
// recognizer under timeout management, consults frame quality, requests state
// transitions, falls back to OCR when allowed, and normalizes whichever
// outcome wins into a single Result.
//
// The quality verdict is advisory only: it is read at phase boundaries and
// logged, never used to preempt an in-flight recognizer call.
type Controller struct {
	session config.Session
	policy  timeout.Policy
	logger  *slog.Logger

	machine *state.Machine
	timers  *timeout.Manager
	frames  *quality.Processor
	monitor *budget.Monitor

	decoder recognizer.BarcodeDecoder
	ocr     recognizer.TextRecognizer
	parser  recognizer.FieldParser

	mu          sync.Mutex
	sessionID   string
	running     bool
	cancelled   bool
	cancelRun   context.CancelFunc
	startedAt      time.Time
	phaseStartedAt time.Time
	latestFrame    recognizer.Frame
	metrics        Metrics

	terminalEmitted   bool
	progressListeners []func(Progress)
	metricsListeners  []func(Metrics)
	modeListeners     []func(state.ScanMode, string)
	completeListeners []func(Result)
	errorListeners    []func(*scanerr.ScanError)
}

// New builds a controller for repeated single sessions. The config is shared
// read-only; the controller copies the sections it needs and never mutates
// them.
func New(cfg *config.Config, decoder recognizer.BarcodeDecoder, ocr recognizer.TextRecognizer, parser recognizer.FieldParser, logger *slog.Logger) *Controller {
	logger = logging.WithComponent(logger, "scan-session")
	c := &Controller{
		session: cfg.Session,
		policy:  timeout.PolicyFromConfig(cfg.Retry),
		logger:  logger,
		machine: state.NewMachine(cfg.Session.EnableFallback),
		timers:  timeout.NewManager(logger),
		frames:  quality.NewProcessor(cfg.Quality, cfg.Session.ConfidenceThreshold),
		monitor: budget.NewMonitor(cfg.Budget),
		decoder: decoder,
		ocr:     ocr,
		parser:  parser,
	}
	c.machine.Subscribe(c.onTransition)
	return c
}

// State returns the current session state.
func (c *Controller) State() state.SessionState {
	return c.machine.Current()
}

// Metrics returns a copy of the session metrics accumulated so far.
func (c *Controller) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// PendingTimers reports the number of live timers, for leak checks.
func (c *Controller) PendingTimers() int {
	return c.timers.Pending()
}

// Cancel aborts the session. It is idempotent and safe from any state,
// including before Start and after completion. An in-flight Start resolves
// as a cancellation outcome rather than hanging.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	cancelRun := c.cancelRun
	running := c.running
	c.mu.Unlock()

	if _, err := c.machine.Request(state.EventCancel, "caller"); err != nil {
		// Already terminal; nothing to unwind.
		c.logger.Debug("cancel after terminal state", logging.Error(err))
	}
	c.timers.CancelAll()
	if cancelRun != nil {
		cancelRun()
	}
	if !running {
		// Cancelled before Start: finalize an empty session record.
		c.finalize(failureResult(scanerr.ErrCancelled))
	}
}

// Reset returns the controller to a state behaviorally identical to a fresh
// instance: idle machine, empty metrics, cleared quality buffer, no timers.
func (c *Controller) Reset() {
	c.timers.Reset()
	c.frames.Reset()
	c.monitor.Rebase()
	c.machine.Reset()

	c.mu.Lock()
	c.sessionID = ""
	c.running = false
	c.cancelled = false
	c.cancelRun = nil
	c.startedAt = time.Time{}
	c.phaseStartedAt = time.Time{}
	c.latestFrame = recognizer.Frame{}
	c.metrics = Metrics{}
	c.terminalEmitted = false
	c.mu.Unlock()
}

// onTransition reacts to every successful state change: it logs the edge and
// pushes a fresh progress snapshot, in transition order.
func (c *Controller) onTransition(previous, next state.SessionState, reason string) {
	c.logger.Info("session state changed",
		logging.String("from", string(previous)),
		logging.String(logging.FieldState, string(next)),
		logging.String("reason", reason),
	)
	c.emitProgress(c.snapshotProgress(next))
}

func (c *Controller) snapshotProgress(s state.SessionState) Progress {
	c.mu.Lock()
	started := c.startedAt
	phaseStart := c.phaseStartedAt
	c.mu.Unlock()

	elapsed := time.Duration(0)
	if !started.IsZero() {
		elapsed = time.Since(started)
	}
	phaseElapsed := time.Duration(0)
	if !phaseStart.IsZero() {
		phaseElapsed = time.Since(phaseStart)
	}
	return Progress{
		State:     s,
		Percent:   estimatePercent(s, phaseElapsed, c.phaseBudget(s)),
		StatusKey: statusKey(s),
		Elapsed:   elapsed,
	}
}

func (c *Controller) phaseBudget(s state.SessionState) time.Duration {
	switch s {
	case state.StateScanningBarcode:
		return c.session.BarcodeTimeout()
	case state.StateTransitioning:
		return c.session.TransitionBudget()
	case state.StateScanningOCR:
		return c.session.OCRTimeout()
	default:
		return 0
	}
}
