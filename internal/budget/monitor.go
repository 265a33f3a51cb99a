package budget

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"idlens/internal/config"
	"idlens/internal/scanerr"
)

// Alert describes an advisory budget breach.
type Alert struct {
	Kind    string // "memory" or "cpu"
	Message string
}

// Usage is a point-in-time reading of the session's resource consumption.
type Usage struct {
	MemoryDeltaBytes int64
	CPUPercent       float64
}

// Monitor tracks per-session memory and CPU consumption against the
// configured advisory limits. Breaches surface as alerts (or as a hard error
// when enforcement is on); they never fire more than once per kind.
type Monitor struct {
	cfg config.Budget

	mu           sync.Mutex
	baselineMem  uint64
	baselineCPU  time.Duration
	baselineWall time.Time
	peak         Usage
	alerted      map[string]bool
}

// NewMonitor captures the baseline readings for a session about to start.
func NewMonitor(cfg config.Budget) *Monitor {
	m := &Monitor{cfg: cfg, alerted: make(map[string]bool)}
	m.Rebase()
	return m
}

// Rebase re-captures baselines. Called on session start and reset.
func (m *Monitor) Rebase() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baselineMem = heapInUse()
	m.baselineCPU = processCPUTime()
	m.baselineWall = time.Now()
	m.peak = Usage{}
	m.alerted = make(map[string]bool)
}

// Sample takes a reading, updates the recorded peaks, and returns any newly
// breached budgets. When enforcement is enabled the returned error wraps
// scanerr.ErrResourceBudget; otherwise the error is always nil.
func (m *Monitor) Sample() ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage := Usage{}
	if current := heapInUse(); current > m.baselineMem {
		usage.MemoryDeltaBytes = int64(current - m.baselineMem)
	}
	if wall := time.Since(m.baselineWall); wall > 0 {
		cpu := processCPUTime() - m.baselineCPU
		usage.CPUPercent = 100 * float64(cpu) / float64(wall)
	}

	if usage.MemoryDeltaBytes > m.peak.MemoryDeltaBytes {
		m.peak.MemoryDeltaBytes = usage.MemoryDeltaBytes
	}
	if usage.CPUPercent > m.peak.CPUPercent {
		m.peak.CPUPercent = usage.CPUPercent
	}

	var alerts []Alert
	limitBytes := int64(m.cfg.MaxMemoryDeltaMB) << 20
	if limitBytes > 0 && usage.MemoryDeltaBytes > limitBytes && !m.alerted["memory"] {
		m.alerted["memory"] = true
		alerts = append(alerts, Alert{
			Kind:    "memory",
			Message: fmt.Sprintf("memory delta %dMB exceeds %dMB budget", usage.MemoryDeltaBytes>>20, m.cfg.MaxMemoryDeltaMB),
		})
	}
	if m.cfg.MaxCPUPercent > 0 && usage.CPUPercent > float64(m.cfg.MaxCPUPercent) && !m.alerted["cpu"] {
		m.alerted["cpu"] = true
		alerts = append(alerts, Alert{
			Kind:    "cpu",
			Message: fmt.Sprintf("cpu estimate %.0f%% exceeds %d%% budget", usage.CPUPercent, m.cfg.MaxCPUPercent),
		})
	}

	if m.cfg.Enforce && len(alerts) > 0 {
		return alerts, scanerr.Wrap(scanerr.ErrResourceBudget, "session", "budget", alerts[0].Message, nil)
	}
	return alerts, nil
}

// Peak returns the highest usage observed since the last Rebase.
func (m *Monitor) Peak() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

func heapInUse() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapInuse
}

// processCPUTime returns the user+system CPU time consumed by this process.
func processCPUTime() time.Duration {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0
	}
	return timevalDuration(usage.Utime) + timevalDuration(usage.Stime)
}

func timevalDuration(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}
