package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation matches every *ValidationError with errors.Is.
var ErrValidation = errors.New("settings: validation failed")

// ValidationError names the offending setting, the rejected value and the
// values that would have been accepted.
type ValidationError struct {
	Key      string
	Value    string
	Accepted []string
	Reason   string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid value %q for setting %q", e.Value, e.Key)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Accepted) > 0 {
		fmt.Fprintf(&b, " (accepted: %s)", strings.Join(e.Accepted, ", "))
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(key, value, reason string, accepted ...string) *ValidationError {
	return &ValidationError{Key: key, Value: value, Accepted: accepted, Reason: reason}
}
