package monitor

import (
	"testing"
	"time"
)

func TestMonitor_Stats(t *testing.T) {
	m := New(10)
	m.Record(100*time.Millisecond, true)
	m.Record(300*time.Millisecond, true)
	m.Record(200*time.Millisecond, false)

	s := m.Stats()
	if s.TotalCalls != 3 || s.Successes != 2 || s.Failures != 1 {
		t.Errorf("counts: got %d/%d/%d", s.TotalCalls, s.Successes, s.Failures)
	}
	if s.AvgOCRMillis != 200 {
		t.Errorf("avg: got %v, want 200", s.AvgOCRMillis)
	}
	if s.MaxOCRMillis != 300 {
		t.Errorf("max: got %v, want 300", s.MaxOCRMillis)
	}
	if want := 2.0 / 3.0; s.SuccessRate != want {
		t.Errorf("success rate: got %v, want %v", s.SuccessRate, want)
	}
}

func TestMonitor_WindowBounds(t *testing.T) {
	m := New(3)
	m.Record(1000*time.Millisecond, true)
	for i := 0; i < 3; i++ {
		m.Record(100*time.Millisecond, true)
	}

	s := m.Stats()
	if s.WindowSize != 3 {
		t.Errorf("window size: got %d, want 3", s.WindowSize)
	}
	// The 1000ms outlier rotated out of the window.
	if s.AvgOCRMillis != 100 {
		t.Errorf("avg: got %v, want 100", s.AvgOCRMillis)
	}
	// Lifetime counters are not windowed.
	if s.TotalCalls != 4 {
		t.Errorf("total calls: got %d, want 4", s.TotalCalls)
	}
}

func TestMonitor_HealthFresh(t *testing.T) {
	h := New(10).Health()
	if !h.Healthy || len(h.Issues) != 0 {
		t.Errorf("fresh monitor unhealthy: %+v", h)
	}
}

func TestMonitor_HealthSlowOCR(t *testing.T) {
	m := New(10)
	m.Record(8*time.Second, true)
	m.Record(9*time.Second, true)

	h := m.Health()
	if h.Healthy {
		t.Fatalf("slow recognitions not flagged: %+v", h)
	}
	if len(h.Issues) != 1 {
		t.Errorf("issues: got %v", h.Issues)
	}
}

func TestMonitor_HealthFailureRate(t *testing.T) {
	m := New(10)
	// Below the minimum call count a failure streak is not judged.
	for i := 0; i < 4; i++ {
		m.Record(10*time.Millisecond, false)
	}
	if h := m.Health(); !h.Healthy {
		t.Fatalf("failure rate judged too early: %+v", h)
	}

	m.Record(10*time.Millisecond, false)
	if h := m.Health(); h.Healthy {
		t.Error("sustained failures not flagged")
	}
}

func TestMonitor_Uptime(t *testing.T) {
	now := time.Unix(1000000, 0)
	m := New(10, WithClock(func() time.Time { return now }))

	now = now.Add(90 * time.Second)
	if got := m.Stats().UptimeSeconds; got != 90 {
		t.Errorf("uptime: got %v, want 90", got)
	}
}
