package chain

import (
	"errors"
	"fmt"

	"dingwecker/config"
)

var (
	// ErrAlreadyActive is returned by Start when a chain is running and the
	// retrigger policy is reject.
	ErrAlreadyActive = errors.New("a countdown is already running")

	// ErrNegativeCount is returned by Countdown.Start for a count below zero.
	ErrNegativeCount = errors.New("countdown start must not be negative")
)

// InvalidRangeError is returned when the configured delay range cannot be
// sampled. The bounds are reported as configured, never swapped.
type InvalidRangeError struct {
	Range config.DelayRange
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid delay range [%d, %d]: need 0 <= min <= max", e.Range.Min, e.Range.Max)
}

func (e *InvalidRangeError) Unwrap() error {
	return config.ErrInvalidRange
}
