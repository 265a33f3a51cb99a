package capture

import (
	"idlens/internal/scanerr"
	"idlens/internal/state"
)

// Listener registration. Callbacks run synchronously on the goroutine that
// produced the event, in registration order, matching transition order.

// OnProgress registers a callback for progress snapshots.
func (c *Controller) OnProgress(fn func(Progress)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressListeners = append(c.progressListeners, fn)
}

// OnMetrics registers a callback for metrics updates.
func (c *Controller) OnMetrics(fn func(Metrics)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metricsListeners = append(c.metricsListeners, fn)
}

// OnModeChange registers a callback fired when the authoritative recognition
// strategy changes.
func (c *Controller) OnModeChange(fn func(mode state.ScanMode, reason string)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modeListeners = append(c.modeListeners, fn)
}

// OnComplete registers a callback for the successful terminal result.
func (c *Controller) OnComplete(fn func(Result)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completeListeners = append(c.completeListeners, fn)
}

// OnError registers a callback for the failing terminal error.
func (c *Controller) OnError(fn func(*scanerr.ScanError)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorListeners = append(c.errorListeners, fn)
}

func (c *Controller) emitProgress(snapshot Progress) {
	c.mu.Lock()
	listeners := append([]func(Progress){}, c.progressListeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (c *Controller) emitMetrics(metrics Metrics) {
	c.mu.Lock()
	listeners := append([]func(Metrics){}, c.metricsListeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(metrics)
	}
}

func (c *Controller) emitModeChange(mode state.ScanMode, reason string) {
	c.mu.Lock()
	listeners := append([]func(state.ScanMode, string){}, c.modeListeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(mode, reason)
	}
}

// emitTerminal delivers exactly one of complete/error for the session.
func (c *Controller) emitTerminal(result Result) {
	c.mu.Lock()
	if c.terminalEmitted {
		c.mu.Unlock()
		return
	}
	c.terminalEmitted = true
	completes := append([]func(Result){}, c.completeListeners...)
	errors := append([]func(*scanerr.ScanError){}, c.errorListeners...)
	c.mu.Unlock()

	if result.Success {
		for _, fn := range completes {
			fn(result)
		}
		return
	}
	for _, fn := range errors {
		fn(result.Err)
	}
}
