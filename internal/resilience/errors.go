package resilience

import (
	"fmt"
	"time"
)

// CircuitOpenError is returned when the circuit breaker rejects a call
// without attempting the backend.
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resilience: circuit open: %s", e.Name)
}

// TimeoutError is returned when a pooled call exceeds its deadline and is
// abandoned.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("resilience: %s timed out after %s", e.Op, e.Timeout)
}
