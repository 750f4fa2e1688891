package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var ErrInvalidWindow = errors.New("invalid operating window")

// Window is the daily operating window, expressed as offsets from midnight in
// Location. The window is the half-open interval [Start, End).
type Window struct {
	Start    time.Duration
	End      time.Duration
	Location *time.Location
	// DisplayLocation is used only for human-readable status messages.
	DisplayLocation *time.Location
}

// Validate checks that 0 <= Start < End <= 24h.
func (w Window) Validate() error {
	if w.Start < 0 || w.Start >= day {
		return fmt.Errorf("%w: start %s out of range", ErrInvalidWindow, w.Start)
	}
	if w.End <= w.Start {
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidWindow, w.End, w.Start)
	}
	if w.End > day {
		return fmt.Errorf("%w: end %s exceeds one day", ErrInvalidWindow, w.End)
	}
	return nil
}

// bounds returns the window start and end for the calendar day containing t.
func (w Window) bounds(t time.Time) (time.Time, time.Time) {
	local := t.In(w.location())
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, w.location())
	return midnight.Add(w.Start), midnight.Add(w.End)
}

// nextStart returns the start of the window on the day after t.
func (w Window) nextStart(t time.Time) time.Time {
	local := t.In(w.location())
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, w.location()).Add(w.Start)
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

func (w Window) displayLocation() *time.Location {
	if w.DisplayLocation == nil {
		return w.location()
	}
	return w.DisplayLocation
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}

	var fields [3]int
	limits := [3]int{24, 59, 59}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid clock value %q", s)
		}
		fields[i] = n
	}

	offset := time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second
	if offset > day {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return offset, nil
}
