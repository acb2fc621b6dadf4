// Package monitor tracks recognition performance over a sliding window
// and derives a coarse health verdict from it.
package monitor

import (
	"fmt"
	"sync"
	"time"
)

// Default health thresholds. Crossing either one marks the service
// degraded in Health output.
const (
	slowOCRMillis  = 5000.0
	minSuccessRate = 0.9
	minHealthCalls = 5 // calls needed before the success rate is judged
)

// Stats is a snapshot of recognition performance.
type Stats struct {
	TotalCalls    uint64  `json:"total_calls"`
	Successes     uint64  `json:"successes"`
	Failures      uint64  `json:"failures"`
	SuccessRate   float64 `json:"success_rate"`
	AvgOCRMillis  float64 `json:"avg_ocr_ms"`
	MaxOCRMillis  float64 `json:"max_ocr_ms"`
	WindowSize    int     `json:"window_size"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health is a coarse verdict over recent performance.
type Health struct {
	Healthy bool     `json:"healthy"`
	Issues  []string `json:"issues,omitempty"`
}

// Monitor records recognition outcomes and timings. Timings are kept in
// a bounded ring so long-running processes see recent behavior rather
// than lifetime averages. Safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	timings   []float64 // milliseconds, ring buffer
	next      int
	filled    int
	successes uint64
	failures  uint64
	started   time.Time
	now       func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets a custom clock function (for testing).
func WithClock(fn func() time.Time) Option {
	return func(m *Monitor) { m.now = fn }
}

// New creates a monitor keeping the last window timings. A non-positive
// window falls back to 100 entries.
func New(window int, opts ...Option) *Monitor {
	if window < 1 {
		window = 100
	}
	m := &Monitor{
		timings: make([]float64, window),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.started = m.now()
	return m
}

// Record adds one recognition outcome with its elapsed time.
func (m *Monitor) Record(elapsed time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timings[m.next] = float64(elapsed.Milliseconds())
	m.next = (m.next + 1) % len(m.timings)
	if m.filled < len(m.timings) {
		m.filled++
	}
	if ok {
		m.successes++
	} else {
		m.failures++
	}
}

// Stats returns a snapshot of recorded performance.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked()
}

func (m *Monitor) statsLocked() Stats {
	s := Stats{
		TotalCalls:    m.successes + m.failures,
		Successes:     m.successes,
		Failures:      m.failures,
		WindowSize:    m.filled,
		UptimeSeconds: m.now().Sub(m.started).Seconds(),
	}
	if s.TotalCalls > 0 {
		s.SuccessRate = float64(m.successes) / float64(s.TotalCalls)
	}

	var sum, max float64
	for i := 0; i < m.filled; i++ {
		t := m.timings[i]
		sum += t
		if t > max {
			max = t
		}
	}
	if m.filled > 0 {
		s.AvgOCRMillis = sum / float64(m.filled)
	}
	s.MaxOCRMillis = max
	return s
}

// Health judges recent performance against the package thresholds. The
// success rate is only judged once enough calls have been recorded, so
// a single early failure does not flag a fresh process as degraded.
func (m *Monitor) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked()
	var issues []string
	if s.WindowSize > 0 && s.AvgOCRMillis > slowOCRMillis {
		issues = append(issues, fmt.Sprintf("slow recognition: avg %.0fms over last %d calls", s.AvgOCRMillis, s.WindowSize))
	}
	if s.TotalCalls >= minHealthCalls && s.SuccessRate < minSuccessRate {
		issues = append(issues, fmt.Sprintf("high failure rate: %.0f%% success", s.SuccessRate*100))
	}
	return Health{Healthy: len(issues) == 0, Issues: issues}
}
