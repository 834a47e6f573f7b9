package window

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations invoked before Initialize
	// has completed.
	ErrNotInitialized = errors.New("message window is still loading, try again in a moment")

	// ErrRange matches every *RangeError.
	ErrRange = errors.New("invalid message range")

	// ErrOutOfScope matches every *ScopeError.
	ErrOutOfScope = errors.New("search limit exceeded")

	// ErrInvalidRange is returned when a TimeRange would not be forward ordered.
	// It indicates a degenerate window, not a user mistake.
	ErrInvalidRange = errors.New("time range has to be forward ordered")
)

// RangeError carries the offending bounds of a Range call.
type RangeError struct {
	Start int
	Stop  int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%d to %d is not a valid message range (window holds %d messages)", e.Start, e.Stop, e.Len)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

// ScopeError reports a query that would need messages outside the window.
type ScopeError struct {
	Reason string
}

func (e *ScopeError) Error() string { return e.Reason }

func (e *ScopeError) Is(target error) bool { return target == ErrOutOfScope }
