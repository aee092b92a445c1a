package reconcile

import (
	"errors"
	"fmt"
)

var (
	ErrNilChecklist  = errors.New("checklist is required")
	ErrNilComparison = errors.New("comparison is required")
)

// ValidationError reports a malformed resolution payload. It is always
// raised before any state mutation: a rejected resolution leaves trackers
// and checklists untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid resolution: " + e.Reason
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
