package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"idlens/internal/logging"
	"idlens/internal/recognizer"
	"idlens/internal/scanerr"
	"idlens/internal/state"
)

// Start runs one scan session to a terminal state and returns its Result.
// At most one recognizer call is outstanding at any time; the barcode and
// OCR strategies are strictly sequential alternatives.
func (c *Controller) Start(ctx context.Context, input Input) (Result, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return Result{}, errors.New("scan session already running")
	}
	if c.cancelled {
		c.mu.Unlock()
		return failureResult(scanerr.ErrCancelled), nil
	}
	runCtx, cancelRun := context.WithCancel(ctx)
	c.running = true
	c.cancelRun = cancelRun
	c.sessionID = uuid.NewString()
	now := time.Now()
	c.startedAt = now
	c.phaseStartedAt = now
	c.metrics = Metrics{SessionID: c.sessionID, StartedAt: now, Outcome: state.StateScanningBarcode}
	sessionID := c.sessionID
	c.mu.Unlock()
	defer cancelRun()

	runCtx = scanerr.WithSessionID(runCtx, sessionID)
	logger := logging.WithContext(runCtx, c.logger)
	c.monitor.Rebase()

	if _, err := c.machine.Request(state.EventStart, "caller"); err != nil {
		// Cancel won the race or the controller was not reset.
		if c.machine.Current() == state.StateCancelled {
			return c.finalize(failureResult(scanerr.ErrCancelled)), nil
		}
		c.mu.Lock()
		c.running = false
		c.cancelRun = nil
		c.mu.Unlock()
		return Result{}, err
	}

	if input != nil {
		go c.pumpFrames(runCtx, input)
	}

	payload, result := c.runPhases(runCtx, logger)
	if payload != nil {
		return c.finalize(successResult(payload)), nil
	}
	return c.finalize(result), nil
}

// runPhases executes the barcode phase and, when allowed, the OCR fallback.
// It returns either a payload or the failure result to finalize.
func (c *Controller) runPhases(ctx context.Context, logger *slog.Logger) (*recognizer.License, Result) {
	payload, barcodeErr := c.runBarcodePhase(ctx)
	if barcodeErr == nil {
		if _, err := c.machine.Request(state.EventBarcodeSucceeded, "confidence above threshold"); err != nil {
			return nil, failureResult(scanerr.ErrCancelled)
		}
		c.recordFinalMode(state.ModeBarcode)
		return payload, Result{}
	}
	if errors.Is(barcodeErr, scanerr.ErrCancelled) {
		return nil, failureResult(barcodeErr)
	}

	event, reason := classifyBarcodeFailure(barcodeErr)
	next, err := c.machine.Request(event, reason)
	if err != nil {
		return nil, failureResult(scanerr.ErrCancelled)
	}
	if next == state.StateFailed {
		// Fallback disabled: the barcode error is terminal.
		return nil, failureResult(barcodeErr)
	}

	// Entering the transition window. The quality verdict is consulted here,
	// at a phase boundary, and logged as advice.
	c.mu.Lock()
	verdict := c.frames.Verdict()
	c.mu.Unlock()
	logger.Info("falling back to ocr",
		logging.String("reason", reason),
		logging.Float64("quality_score", verdict.Score),
		logging.String("quality_mode", string(verdict.Mode)),
		logging.Bool("quality_insufficient", verdict.Insufficient),
	)
	c.emitModeChange(state.ModeOCR, reason)
	c.sampleBudgets(logger)

	if err := c.runTransitionPhase(ctx); err != nil {
		if errors.Is(err, scanerr.ErrCancelled) {
			return nil, failureResult(err)
		}
		// Warm-up overran its budget: abandon it and proceed. The state
		// table has no failure edge out of transitioning; the overrun is
		// surfaced as an alert instead.
		logger.Warn("ocr warm-up abandoned",
			logging.String(logging.FieldAlert, "transition_budget_exceeded"),
			logging.Error(err),
		)
	}
	if _, err := c.machine.Request(state.EventTransitionComplete, "ocr ready"); err != nil {
		return nil, failureResult(scanerr.ErrCancelled)
	}
	c.recordFinalMode(state.ModeOCR)

	payload, ocrErr := c.runOCRPhase(ctx)
	if ocrErr == nil {
		if _, err := c.machine.Request(state.EventOCRSucceeded, "fields parsed"); err != nil {
			return nil, failureResult(scanerr.ErrCancelled)
		}
		return payload, Result{}
	}
	if errors.Is(ocrErr, scanerr.ErrCancelled) {
		return nil, failureResult(ocrErr)
	}
	event = state.EventOCRFailed
	reason = "failure"
	switch {
	case errors.Is(ocrErr, scanerr.ErrTimeout):
		event = state.EventOCRTimedOut
		reason = "timeout"
	case c.totalRemaining() <= 0:
		// A failing OCR outcome past the total budget reports as a timeout.
		event = state.EventOCRTimedOut
		reason = "timeout"
		ocrErr = scanerr.Wrap(scanerr.ErrTimeout, "ocr", "run", "total session budget exhausted", ocrErr)
	}
	if _, err := c.machine.Request(event, reason); err != nil {
		return nil, failureResult(scanerr.ErrCancelled)
	}
	return nil, failureResult(ocrErr)
}

// runBarcodePhase invokes the barcode decoder under the phase budget, with
// transient failures retried inside the budget.
func (c *Controller) runBarcodePhase(ctx context.Context) (*recognizer.License, error) {
	phaseCtx := scanerr.WithPhase(ctx, "barcode")
	c.markPhaseStart()
	defer c.recordPhase(&c.metrics.BarcodeDuration)

	budget := c.remainingBudget(c.session.BarcodeTimeout())
	if budget <= 0 {
		return nil, scanerr.Wrap(scanerr.ErrTimeout, "barcode", "run", "total session budget exhausted", nil)
	}

	var payload *recognizer.License
	err := c.timers.RunWithTimeout(phaseCtx, "barcode", budget, func(opCtx context.Context) error {
		return c.timers.RunWithRetry(opCtx, "barcode", c.policy, func(attemptCtx context.Context) error {
			c.countAttempt(&c.metrics.BarcodeAttempts)
			result, err := c.decoder.Decode(attemptCtx, c.currentFrame())
			if err != nil {
				return err
			}
			if result.Confidence < c.session.ConfidenceThreshold {
				return scanerr.Wrap(scanerr.ErrLowConfidence, "barcode", "decode",
					fmt.Sprintf("confidence %.2f below threshold %.2f", result.Confidence, c.session.ConfidenceThreshold), nil)
			}
			payload = result.Payload
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// runTransitionPhase performs OCR preparation inside the transition budget.
func (c *Controller) runTransitionPhase(ctx context.Context) error {
	phaseCtx := scanerr.WithPhase(ctx, "transition")
	c.markPhaseStart()
	defer c.recordPhase(&c.metrics.TransitionDuration)

	warmer, ok := c.ocr.(recognizer.Warmer)
	if !ok {
		return nil
	}
	err := c.timers.RunWithTimeout(phaseCtx, "transition", c.session.TransitionBudget(), warmer.Warm)
	if err != nil && errors.Is(err, scanerr.ErrTimeout) {
		return scanerr.Wrap(scanerr.ErrTransitionBudget, "transition", "warm",
			fmt.Sprintf("warm-up exceeded %s", c.session.TransitionBudget()), err)
	}
	return err
}

// runOCRPhase extracts text and parses fields under the OCR budget. The total
// session budget gates whether the phase may start; once started, an attempt
// gets the full OCR budget and is never preempted mid-run.
func (c *Controller) runOCRPhase(ctx context.Context) (*recognizer.License, error) {
	phaseCtx := scanerr.WithPhase(ctx, "ocr")
	c.markPhaseStart()
	defer c.recordPhase(&c.metrics.OCRDuration)

	if c.totalRemaining() <= 0 {
		return nil, scanerr.Wrap(scanerr.ErrTimeout, "ocr", "run", "total session budget exhausted", nil)
	}
	budget := c.session.OCRTimeout()

	var payload *recognizer.License
	err := c.timers.RunWithTimeout(phaseCtx, "ocr", budget, func(opCtx context.Context) error {
		return c.timers.RunWithRetry(opCtx, "ocr", c.policy, func(attemptCtx context.Context) error {
			c.countAttempt(&c.metrics.OCRAttempts)
			observations, err := c.ocr.Extract(attemptCtx, c.currentFrame())
			if err != nil {
				return err
			}
			license, err := c.parser.Parse(attemptCtx, observations)
			if err != nil {
				return err
			}
			payload = license
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// pumpFrames drains the input source for the life of the session, feeding
// the quality processor and refreshing the latest frame handed to
// recognizers. Ingestion is synchronous with respect to each frame event.
func (c *Controller) pumpFrames(ctx context.Context, input Input) {
	for event := range input.Frames(ctx) {
		c.mu.Lock()
		c.latestFrame = event.Frame
		c.frames.Ingest(event.Quality)
		c.mu.Unlock()
		c.sampleBudgets(c.logger)
		c.emitProgress(c.snapshotProgress(c.machine.Current()))
	}
}

func classifyBarcodeFailure(err error) (state.Event, string) {
	switch {
	case errors.Is(err, scanerr.ErrTimeout):
		return state.EventBarcodeTimedOut, "timeout"
	case errors.Is(err, scanerr.ErrLowConfidence):
		return state.EventBarcodeFailed, "low_confidence"
	default:
		return state.EventBarcodeFailed, "failure"
	}
}

// finalize closes out the session exactly once: metrics are frozen, the
// terminal event is emitted, and the result is returned unchanged.
func (c *Controller) finalize(result Result) Result {
	c.mu.Lock()
	if c.metrics.Finalized {
		c.mu.Unlock()
		return result
	}
	peak := c.monitor.Peak()
	c.metrics.FinishedAt = time.Now()
	if !c.metrics.StartedAt.IsZero() {
		c.metrics.TotalDuration = c.metrics.FinishedAt.Sub(c.metrics.StartedAt)
	}
	c.metrics.PeakMemoryDeltaBytes = peak.MemoryDeltaBytes
	c.metrics.PeakCPUPercent = peak.CPUPercent
	c.metrics.QualityScore = c.frames.Verdict().Score
	c.metrics.Outcome = c.machine.Current()
	if result.Err != nil {
		c.metrics.ErrorCode = result.Err.Code
	}
	c.metrics.Finalized = true
	c.running = false
	metrics := c.metrics
	c.mu.Unlock()

	c.timers.CancelAll()
	c.emitMetrics(metrics)
	c.emitTerminal(result)
	c.logger.Info("session finished",
		logging.String(logging.FieldSessionID, metrics.SessionID),
		logging.String(logging.FieldState, string(metrics.Outcome)),
		logging.Duration("total", metrics.TotalDuration),
		logging.String("error_code", metrics.ErrorCode),
	)
	return result
}

// remainingBudget caps a phase budget by what is left of the total session
// budget; a non-positive return means the session budget is exhausted.
func (c *Controller) remainingBudget(phase time.Duration) time.Duration {
	remaining := c.totalRemaining()
	if remaining < phase {
		return remaining
	}
	return phase
}

// totalRemaining reports how much of the total session budget is left.
func (c *Controller) totalRemaining() time.Duration {
	c.mu.Lock()
	started := c.startedAt
	c.mu.Unlock()
	if started.IsZero() {
		return c.session.TotalTimeout()
	}
	return c.session.TotalTimeout() - time.Since(started)
}

func (c *Controller) currentFrame() recognizer.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latestFrame
}

func (c *Controller) markPhaseStart() {
	c.mu.Lock()
	c.phaseStartedAt = time.Now()
	c.mu.Unlock()
}

// recordPhase stores the elapsed phase duration into the given metrics slot
// and publishes the interim snapshot so observers see per-phase updates.
func (c *Controller) recordPhase(slot *time.Duration) {
	c.mu.Lock()
	if c.metrics.Finalized {
		c.mu.Unlock()
		return
	}
	*slot = time.Since(c.phaseStartedAt)
	snapshot := c.metrics
	c.mu.Unlock()
	c.emitMetrics(snapshot)
}

func (c *Controller) countAttempt(slot *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.metrics.Finalized {
		*slot++
	}
}

func (c *Controller) recordFinalMode(mode state.ScanMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.metrics.Finalized {
		c.metrics.FinalMode = mode
	}
}

// sampleBudgets takes a resource reading and logs any advisory breaches.
func (c *Controller) sampleBudgets(logger *slog.Logger) {
	alerts, err := c.monitor.Sample()
	for _, alert := range alerts {
		logger.Warn("resource budget breached",
			logging.String(logging.FieldAlert, alert.Kind),
			logging.String("detail", alert.Message),
		)
	}
	if err != nil {
		logger.Warn("resource budget enforcement tripped", logging.Error(err))
	}
}
