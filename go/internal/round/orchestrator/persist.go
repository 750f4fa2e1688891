package orchestrator

import (
	"context"
	"fmt"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/rs/zerolog/log"
)

func (c *Controller) persist(roundIndex int, seed models.OutcomeSet) error {
	if !c.st.open || c.st.roundIndex == 0 {
		return ErrNoOpenRound
	}
	if roundIndex != c.st.roundIndex {
		return fmt.Errorf("%w: requested %d, current %d", ErrStaleRound, roundIndex, c.st.roundIndex)
	}

	if c.st.completedSeq == c.st.roundSeq {
		return fmt.Errorf("%w: round %d", ErrRoundFinalized, roundIndex)
	}
	if c.st.roundID != nil {
		c.emit(events.TypeRoundSaved, events.RoundSavedPayload{
			Success:    true,
			RoundID:    c.st.roundID,
			RoundIndex: c.st.roundIndex,
		})
		return nil
	}
	if c.st.persisting {
		log.Debug().Int("round_index", roundIndex).Msg("round persist already in flight, dropping request")
		return nil
	}

	if seed == nil {
		seed = c.st.seed
	}
	round := models.NewRound{
		RoundIndex: c.st.roundIndex,
		StartTime:  c.st.roundStart,
		EndTime:    c.calc.RoundEnd(c.st.roundStart, c.st.windowEnd),
		Seed:       seed.Clone(),
	}
	seq := c.st.roundSeq
	c.st.persisting = true

	log.Info().Int("round_index", roundIndex).Msg("persisting round")

	c.background(func(ctx context.Context) func() {
		id, err := c.store.CreateRound(ctx, round)
		return func() { c.finishPersist(seq, round.RoundIndex, id, err) }
	}, func(err error) {
		c.finishPersist(seq, round.RoundIndex, 0, err)
	})
	return nil
}

func (c *Controller) finishPersist(seq uint64, roundIndex int, id int64, err error) {
	stale := seq != c.st.roundSeq
	if !stale {
		c.st.persisting = false
	}

	if err != nil {
		log.Error().Err(err).Int("round_index", roundIndex).Msg("failed to persist round")
		c.emit(events.TypeRoundSaved, events.RoundSavedPayload{
			Success:    false,
			RoundIndex: roundIndex,
			Error:      err.Error(),
		})
		return
	}

	if stale {
		log.Warn().
			Int64("round_id", id).
			Int("round_index", roundIndex).
			Msg("round persisted after it ended, not binding id")
		return
	}

	c.st.roundID = &id
	log.Info().Int64("round_id", id).Int("round_index", roundIndex).Msg("round persisted")
	c.emit(events.TypeRoundSaved, events.RoundSavedPayload{
		Success:    true,
		RoundID:    &id,
		RoundIndex: roundIndex,
	})
}
