package window

import (
	"fmt"
	"time"
)

// TimeRange is a closed interval [Start, End] with Start strictly before End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange fails with ErrInvalidRange unless start is strictly before end.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, fmt.Errorf("%w: %s is not before %s", ErrInvalidRange,
			start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether Start <= t <= End.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
