// Package timeout owns every timer a scan session arms. It provides
// timeout-wrapped execution and exponential-backoff retry for asynchronous
// recognizer calls, and guarantees that CancelAll releases every outstanding
// timer exactly once regardless of how the wrapped operation exits.
package timeout
