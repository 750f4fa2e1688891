package orchestrator

import (
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/mcdev12/wheelround/go/internal/round/period"
	"github.com/rs/zerolog/log"
)

// tick advances the state machine to now and emits the resulting events.
func (c *Controller) tick(now time.Time) {
	p := c.calc.At(now)

	if !p.IsActive {
		if c.st.open {
			c.closeWindow(p)
		}
		c.emit(events.TypeClosedTimer, closedPayload(p))
		return
	}

	if !c.st.open {
		c.openWindow(p)
	}
	if *p.RoundIndex != c.st.roundIndex {
		c.startRound(now, p)
	}

	left := c.timeLeft(now)
	log.Debug().
		Int("round_index", c.st.roundIndex).
		Int("time_left", left).
		Msg("round tick")
	c.emit(events.TypeRoundTimer, events.RoundTimerPayload{
		RoundIndex:            c.st.roundIndex,
		RoundTimeLeftSeconds:  left,
		IsActive:              true,
		WindowTimeLeftSeconds: p.WindowTimeLeftSeconds,
	})
}

func (c *Controller) openWindow(p period.GamePeriod) {
	c.st.open = true
	c.st.windowEnd = p.WindowEnd
	c.guard.Reset()

	log.Info().
		Time("window_start", p.WindowStart).
		Time("window_end", p.WindowEnd).
		Msg("operating window opened")

	c.emit(events.TypeWindowOpened, events.WindowOpenedPayload{
		Period:   p,
		Outcomes: c.st.outcomes.Clone(),
		RoundID:  c.st.roundID,
	})
}

func (c *Controller) startRound(now time.Time, p period.GamePeriod) {
	c.st.roundIndex = *p.RoundIndex
	c.st.roundSeq++
	c.st.roundStart = now
	c.st.windowEnd = p.WindowEnd
	c.st.outcomes = models.NewOutcomeSet()
	c.st.seed = c.gen.Generate()
	c.st.roundID = nil
	c.st.persisting = false
	c.guard.Reset()

	duration := int(c.calc.RoundDuration() / time.Second)
	log.Info().
		Int("round_index", c.st.roundIndex).
		Time("started_at", now).
		Msg("round started")

	c.emit(events.TypeRoundStart, events.RoundStartPayload{
		RoundIndex:           c.st.roundIndex,
		Duration:             duration,
		OutcomeSeed:          c.st.seed.Clone(),
		RoundTimeLeftSeconds: duration,
		StartedAt:            now,
	})
}

func (c *Controller) closeWindow(p period.GamePeriod) {
	if c.st.roundID != nil && !c.guard.Holds(*c.st.roundID) {
		log.Warn().
			Int64("round_id", *c.st.roundID).
			Int("round_index", c.st.roundIndex).
			Msg("window closed before round was finalized")
	}

	c.st = roundState{
		roundSeq: c.st.roundSeq + 1,
		outcomes: models.NewOutcomeSet(),
	}
	c.guard.Reset()

	log.Info().Msg("operating window closed")
	c.emit(events.TypeWindowClosed, closedPayload(p))
}

// timeLeft derives the countdown from the recorded round start, clamped to
// [0, duration].
func (c *Controller) timeLeft(now time.Time) int {
	duration := int(c.calc.RoundDuration() / time.Second)
	if c.st.roundStart.IsZero() {
		return duration
	}
	elapsed := int(now.Sub(c.st.roundStart) / time.Second)
	left := duration - elapsed
	if left < 0 {
		return 0
	}
	if left > duration {
		return duration
	}
	return left
}

func (c *Controller) reportOutcome(category models.Category, value int, at *time.Time) error {
	if !c.st.open || c.st.roundIndex == 0 {
		return ErrNoOpenRound
	}
	prev := c.st.outcomes.Get(category)
	if err := c.st.outcomes.Set(category, value); err != nil {
		return err
	}

	ts := c.clock.Now()
	if at != nil {
		ts = *at
	}
	ev := log.Info().
		Int("round_index", c.st.roundIndex).
		Str("category", string(category)).
		Int("value", value).
		Int("assigned", c.st.outcomes.Assigned())
	if prev != nil {
		ev = ev.Int("previous", *prev)
	}
	ev.Msg("outcome reported")

	c.emit(events.TypeOutcomeUpdate, events.OutcomeUpdatePayload{
		Outcomes:  c.st.outcomes.Clone(),
		Timestamp: ts,
	})
	return nil
}

func (c *Controller) updateSeed(category models.Category, value int, at *time.Time) error {
	if !c.st.open || c.st.roundIndex == 0 {
		return ErrNoOpenRound
	}
	if c.st.seed == nil {
		c.st.seed = models.NewOutcomeSet()
	}
	if err := c.st.seed.Set(category, value); err != nil {
		return err
	}

	ts := c.clock.Now()
	if at != nil {
		ts = *at
	}
	log.Info().
		Int("round_index", c.st.roundIndex).
		Str("category", string(category)).
		Int("value", value).
		Msg("seed value overridden")

	c.emit(events.TypeSeedUpdate, events.SeedUpdatePayload{
		OutcomeSeed: c.st.seed.Clone(),
		Timestamp:   ts,
	})
	return nil
}

func (c *Controller) snapshot(now time.Time) events.StateSnapshotPayload {
	s := events.StateSnapshotPayload{
		Period:   c.calc.At(now),
		Outcomes: c.st.outcomes.Clone(),
		RoundID:  c.st.roundID,
	}
	if c.st.seed != nil {
		s.Seed = c.st.seed.Clone()
	}
	if c.st.open {
		s.RoundTimeLeftSeconds = c.timeLeft(now)
	}
	switch {
	case c.st.roundSeq != 0 && c.st.completedSeq == c.st.roundSeq:
		s.Completed = true
	case c.st.roundID != nil:
		s.Completed = c.guard.Holds(*c.st.roundID)
	}
	return s
}

func closedPayload(p period.GamePeriod) events.WindowClosedPayload {
	return events.WindowClosedPayload{
		TimeUntilNextWindowSeconds: p.TimeUntilNextWindowSeconds,
		NextWindowStart:            p.NextWindowStart,
		StatusMessage:              p.StatusMessage,
		IsActive:                   false,
	}
}
