// Package resilience guards calls into the OCR engine against a stuck or
// repeatedly failing backend.
//
// # Components
//
// Three guards compose around a call, outermost first:
//
//   - Retry: re-attempts a failed call with exponential backoff, up to a
//     bounded attempt count, with an optional fallback once exhausted.
//   - Breaker: a circuit breaker that fast-fails calls after consecutive
//     failures, probing the backend with a single call once the recovery
//     timeout elapses.
//   - Pool: a fixed-size worker pool whose calls are abandoned past a
//     deadline, so a hung engine cannot pin a request forever.
//
// A call rejected by an open breaker does not consume retry attempts:
// the circuit stays open until its recovery timeout elapses, so an
// immediate retry cannot succeed.
package resilience
