package capture

import (
	"idlens/internal/recognizer"
	"idlens/internal/scanerr"
)

// Result is the session's output envelope, produced exactly once per session
// at a terminal state. Data is the normalized license payload, opaque to the
// orchestration core.
type Result struct {
	Success bool
	Data    *recognizer.License
	Err     *scanerr.ScanError
}

func successResult(payload *recognizer.License) Result {
	return Result{Success: true, Data: payload}
}

func failureResult(err error) Result {
	return Result{Success: false, Err: scanerr.Classify(err)}
}
