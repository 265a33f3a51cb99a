package scanerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTimeout          = errors.New("timeout")
	ErrRecognition      = errors.New("recognition failure")
	ErrLowConfidence    = errors.New("low confidence")
	ErrTransitionBudget = errors.New("transition budget exceeded")
	ErrResourceBudget   = errors.New("resource budget exceeded")
	ErrCancelled        = errors.New("cancelled by caller")
	ErrUnknown          = errors.New("unknown error")
)

// errTransient tags an error as safe to retry. It never appears alone;
// Transient wraps it around one of the sentinels above.
var errTransient = errors.New("transient")

// Wrap builds an error message that includes session phase context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrUnknown
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Transient marks err as retryable. Retry logic only re-attempts errors that
// carry this marker; everything else propagates immediately.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errTransient, err)
}

// IsTransient reports whether err was marked retryable via Transient.
func IsTransient(err error) bool {
	return errors.Is(err, errTransient)
}

// ScanError is the stable error envelope surfaced to callers. UserMessage is
// always distinct from the technical Message and suitable for direct display.
type ScanError struct {
	Code        string
	Message     string
	UserMessage string
	Recoverable bool
}

func (e *ScanError) Error() string {
	return e.Code + ": " + e.Message
}

// Classify maps an error chain onto the ScanError envelope. Unexpected errors
// from collaborators are wrapped as recoverable rather than crashing the
// session.
func Classify(err error) *ScanError {
	if err == nil {
		return nil
	}
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}
	switch {
	case errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled):
		return &ScanError{
			Code:        "CancelledByCaller",
			Message:     err.Error(),
			UserMessage: "Scanning was cancelled.",
			Recoverable: true,
		}
	case errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		return &ScanError{
			Code:        "TimeoutError",
			Message:     err.Error(),
			UserMessage: "Scanning took too long. Hold the document steady and try again.",
			Recoverable: true,
		}
	case errors.Is(err, ErrLowConfidence):
		return &ScanError{
			Code:        "LowConfidence",
			Message:     err.Error(),
			UserMessage: "The document could not be read clearly. Improve lighting and try again.",
			Recoverable: true,
		}
	case errors.Is(err, ErrTransitionBudget):
		return &ScanError{
			Code:        "TransitionBudgetExceeded",
			Message:     err.Error(),
			UserMessage: "Switching scan modes took too long. Please try again.",
			Recoverable: true,
		}
	case errors.Is(err, ErrResourceBudget):
		return &ScanError{
			Code:        "ResourceBudgetExceeded",
			Message:     err.Error(),
			UserMessage: "Scanning was stopped to keep the device responsive. Please try again.",
			Recoverable: true,
		}
	case errors.Is(err, ErrRecognition):
		return &ScanError{
			Code:        "RecognitionFailure",
			Message:     err.Error(),
			UserMessage: "The document could not be recognized. Make sure it fills the frame.",
			Recoverable: true,
		}
	default:
		return &ScanError{
			Code:        "UnknownError",
			Message:     err.Error(),
			UserMessage: "Something went wrong while scanning. Please try again.",
			Recoverable: true,
		}
	}
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "session failure"
	}
	return strings.Join(parts, ": ")
}
