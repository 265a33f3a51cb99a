// Package scanerr defines the error taxonomy shared by the scan session
// components and the context keys used to thread session identity through
// recognizer calls.
//
// Errors are tagged with sentinel markers (ErrTimeout, ErrRecognition, ...)
// via Wrap so the controller can classify any error chain into the stable
// ScanError envelope surfaced to callers. Transient marks a failure as
// retryable; retry logic never re-attempts an unmarked error.
package scanerr
