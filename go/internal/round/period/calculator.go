package period

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRoundDuration = errors.New("round duration must be a positive whole number of seconds")

// GamePeriod describes where an instant falls relative to the operating window.
// It is derived, never persisted.
type GamePeriod struct {
	IsActive                   bool       `json:"isActive"`
	RoundIndex                 *int       `json:"roundIndex"`
	RoundTimeLeftSeconds       int        `json:"roundTimeLeftSeconds"`
	WindowTimeLeftSeconds      *int       `json:"windowTimeLeftSeconds"`
	NextWindowStart            *time.Time `json:"nextWindowStart"`
	TimeUntilNextWindowSeconds *int       `json:"timeUntilNextWindowSeconds"`
	WindowStart                time.Time  `json:"windowStart"`
	WindowEnd                  time.Time  `json:"windowEnd"`
	StatusMessage              string     `json:"statusMessage,omitempty"`
	At                         time.Time  `json:"at"`
}

// Calculator maps wall-clock instants to game periods. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	window        Window
	roundDuration time.Duration
	roundSeconds  int64
}

// NewCalculator validates the window and round duration.
func NewCalculator(window Window, roundDuration time.Duration) (*Calculator, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if roundDuration < time.Second || roundDuration%time.Second != 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoundDuration, roundDuration)
	}
	return &Calculator{
		window:        window,
		roundDuration: roundDuration,
		roundSeconds:  int64(roundDuration / time.Second),
	}, nil
}

// RoundDuration returns the configured round length.
func (c *Calculator) RoundDuration() time.Duration {
	return c.roundDuration
}

// Window returns the configured operating window.
func (c *Calculator) Window() Window {
	return c.window
}

// At computes the game period for now.
func (c *Calculator) At(now time.Time) GamePeriod {
	start, end := c.window.bounds(now)
	p := GamePeriod{
		WindowStart: start,
		WindowEnd:   end,
		At:          now,
	}

	if !now.Before(start) && now.Before(end) {
		elapsed := int64(now.Sub(start) / time.Second)
		idx := int(elapsed/c.roundSeconds) + 1
		left := int(c.roundSeconds - elapsed%c.roundSeconds)
		windowLeft := floorSeconds(end.Sub(now))

		p.IsActive = true
		p.RoundIndex = &idx
		p.RoundTimeLeftSeconds = clamp(left, 0, int(c.roundSeconds))
		p.WindowTimeLeftSeconds = &windowLeft
		return p
	}

	var next time.Time
	var msg string
	if now.Before(start) {
		next = start
		msg = fmt.Sprintf("Game will start at %s", c.displayTime(next))
	} else {
		next = c.window.nextStart(now)
		msg = fmt.Sprintf("Game closed. Next game tomorrow at %s", c.displayTime(next))
	}
	until := floorSeconds(next.Sub(now))

	p.NextWindowStart = &next
	p.TimeUntilNextWindowSeconds = &until
	p.StatusMessage = msg
	return p
}

// RoundStart returns the scheduled start of round idx in the window that
// begins at windowStart.
func (c *Calculator) RoundStart(windowStart time.Time, idx int) time.Time {
	return windowStart.Add(time.Duration(idx-1) * c.roundDuration)
}

// RoundEnd returns the end of a round that started at start, truncated to the
// window end when the last round of the window is partial.
func (c *Calculator) RoundEnd(start, windowEnd time.Time) time.Time {
	end := start.Add(c.roundDuration)
	if end.After(windowEnd) {
		return windowEnd
	}
	return end
}

func (c *Calculator) displayTime(t time.Time) string {
	return t.In(c.window.displayLocation()).Format("3:04 PM MST")
}

func floorSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
