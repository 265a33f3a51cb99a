package timeout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"idlens/internal/logging"
	"idlens/internal/scanerr"
)

// ErrDestroyed is returned when a destroyed manager is asked to run work.
var ErrDestroyed = errors.New("timeout manager destroyed")

// Operation is a cancellable unit of work. Implementations must honor the
// supplied context; the manager abandons, rather than interrupts, operations
// that outlive their budget.
type Operation func(ctx context.Context) error

// Manager owns every timer a scan session arms. Handles enter the owned
// collection under the same lock that creates them and leave it exactly once,
// on fire or on cancel, so no exit path can leak a live timer.
type Manager struct {
	mu        sync.Mutex
	logger    *slog.Logger
	handles   map[string]*handle
	destroyed bool
}

type handle struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewManager constructs a Manager. A nil logger is replaced with a no-op.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:  logging.WithComponent(logger, "timeout-manager"),
		handles: make(map[string]*handle),
	}
}

// Pending reports the number of outstanding timers. Used by tests to verify
// cleanup on every exit path.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// RunWithTimeout executes op and converts budget expiry into a timeout error
// without waiting for op to return. The abandoned operation keeps running
// until it observes its cancelled context; callers must not assume
// side-effect-free abandonment.
func (m *Manager) RunWithTimeout(ctx context.Context, name string, budget time.Duration, op Operation) error {
	opCtx, cancel := context.WithCancel(ctx)
	id, timer, err := m.arm(budget, cancel)
	if err != nil {
		cancel()
		return err
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()

	select {
	case opErr := <-done:
		m.disarm(id)
		if opErr != nil && errors.Is(opErr, context.Canceled) {
			return scanerr.Wrap(scanerr.ErrCancelled, name, "run", "cancelled", nil)
		}
		return opErr
	case <-timer.C:
		m.disarm(id)
		m.logger.Debug("operation abandoned after budget expiry",
			logging.String("operation", name),
			logging.Duration("budget", budget),
		)
		return scanerr.Wrap(scanerr.ErrTimeout, name, "run", fmt.Sprintf("exceeded %s budget", budget), nil)
	case <-opCtx.Done():
		// Parent cancellation or CancelAll; the timer did not fire.
		m.disarm(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return scanerr.Wrap(scanerr.ErrTimeout, name, "run", "deadline exceeded", ctx.Err())
		}
		return scanerr.Wrap(scanerr.ErrCancelled, name, "run", "cancelled", nil)
	}
}

// RunWithRetry executes op up to policy.MaxRetries additional times. Only
// errors marked transient via scanerr.Transient are retried; everything else
// propagates immediately. Delays follow the policy's exponential backoff and
// are armed through the manager so CancelAll interrupts them.
func (m *Manager) RunWithRetry(ctx context.Context, name string, policy Policy, op Operation) error {
	bo := policy.newBackOff()
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = op(scanerr.WithAttempt(ctx, attempt+1))
		if lastErr == nil {
			return nil
		}
		if !scanerr.IsTransient(lastErr) || attempt >= policy.MaxRetries {
			return lastErr
		}
		delay := bo.NextBackOff()
		m.logger.Debug("retrying transient failure",
			logging.String("operation", name),
			logging.Int(logging.FieldAttempt, attempt+1),
			logging.Duration("delay", delay),
			logging.Error(lastErr),
		)
		if err := m.sleep(ctx, name, delay); err != nil {
			return err
		}
	}
}

// sleep blocks for d using a manager-owned timer so cancellation tears the
// delay down along with everything else.
func (m *Manager) sleep(ctx context.Context, name string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	sleepCtx, cancel := context.WithCancel(ctx)
	id, timer, err := m.arm(d, cancel)
	if err != nil {
		cancel()
		return err
	}
	defer cancel()

	select {
	case <-timer.C:
		m.disarm(id)
		return nil
	case <-sleepCtx.Done():
		m.disarm(id)
		if ctx.Err() != nil {
			return scanerr.Wrap(scanerr.ErrCancelled, name, "retry_delay", "cancelled", nil)
		}
		return scanerr.Wrap(scanerr.ErrCancelled, name, "retry_delay", "cancelled by manager", nil)
	}
}

// arm creates a timer and registers its handle under one critical section,
// so CancelAll can never observe an armed-but-untracked timer.
func (m *Manager) arm(d time.Duration, cancel context.CancelFunc) (string, *time.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return "", nil, ErrDestroyed
	}
	id := uuid.NewString()
	timer := time.NewTimer(d)
	m.handles[id] = &handle{timer: timer, cancel: cancel}
	return id, timer, nil
}

// disarm releases a handle. Safe to call after CancelAll already released it;
// each handle still leaves the collection exactly once.
func (m *Manager) disarm(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[id]
	if !ok {
		return
	}
	h.timer.Stop()
	delete(m.handles, id)
}

// CancelAll synchronously cancels every outstanding timer and prevents their
// callbacks from firing afterward. Idempotent.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*handle)
	m.mu.Unlock()

	for _, h := range handles {
		h.timer.Stop()
		h.cancel()
	}
}

// Destroy cancels all timers and rejects further use.
func (m *Manager) Destroy() {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	m.destroyed = true
	m.mu.Unlock()
	m.CancelAll()
}

// Reset makes a destroyed or used manager behave like a fresh one.
func (m *Manager) Reset() {
	m.CancelAll()
	m.mu.Lock()
	m.destroyed = false
	m.mu.Unlock()
}
