package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/rs/zerolog/log"
)

// CompletionLock records which round, if any, has been finalized.
type CompletionLock struct {
	Completed bool
	RoundID   *int64
}

// CompletionGuard enforces at-most-once finalization per round id. The
// check-and-set happens before any I/O is started.
type CompletionGuard struct {
	mu   sync.Mutex
	lock CompletionLock
}

func NewCompletionGuard() *CompletionGuard {
	return &CompletionGuard{}
}

// TryAcquire marks id as completed. It returns false if id already holds the lock.
func (g *CompletionGuard) TryAcquire(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.lock.Completed && g.lock.RoundID != nil && *g.lock.RoundID == id {
		return false
	}
	g.lock = CompletionLock{Completed: true, RoundID: &id}
	return true
}

// Rollback releases the lock if it is still held for id.
func (g *CompletionGuard) Rollback(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.lock.RoundID == nil || *g.lock.RoundID != id {
		return false
	}
	g.lock = CompletionLock{}
	return true
}

// Holds reports whether id is the completed round.
func (g *CompletionGuard) Holds(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lock.Completed && g.lock.RoundID != nil && *g.lock.RoundID == id
}

// Reset clears the lock for a new round.
func (g *CompletionGuard) Reset() {
	g.mu.Lock()
	g.lock = CompletionLock{}
	g.mu.Unlock()
}

// CompleteResult describes what a completion request did.
type CompleteResult int

const (
	// CompleteNoRound means there was no persisted round to finalize.
	CompleteNoRound CompleteResult = iota
	// CompleteDuplicate means the round is already finalized or being finalized.
	CompleteDuplicate
	// CompleteStarted means finalization was handed to storage.
	CompleteStarted
)

func (r CompleteResult) String() string {
	switch r {
	case CompleteNoRound:
		return "no_round"
	case CompleteDuplicate:
		return "duplicate"
	case CompleteStarted:
		return "started"
	default:
		return "unknown"
	}
}

func (c *Controller) complete(requested *int64) CompleteResult {
	logger := log.With().Int("round_index", c.st.roundIndex).Logger()
	if requested != nil {
		logger = logger.With().Int64("requested_round_id", *requested).Logger()
	}

	if c.st.roundSeq != 0 && c.st.completedSeq == c.st.roundSeq {
		logger.Info().Msg("round already finalized, ignoring duplicate")
		return CompleteDuplicate
	}
	if c.st.roundID == nil {
		logger.Info().Msg("completion requested with no persisted round, ignoring")
		return CompleteNoRound
	}

	id := *c.st.roundID
	if !c.guard.TryAcquire(id) {
		logger.Info().Int64("round_id", id).Msg("round already completed, ignoring duplicate")
		return CompleteDuplicate
	}

	final := c.st.outcomes.Clone()
	roundIndex := c.st.roundIndex
	roundStart := c.st.roundStart
	seq := c.st.roundSeq

	logger.Info().
		Int64("round_id", id).
		Int("assigned", final.Assigned()).
		Bool("all_assigned", final.Complete()).
		Msg("completing round")

	c.background(func(ctx context.Context) func() {
		err := c.store.UpdateRound(ctx, id, final, models.RoundStatusCompleted)
		return func() { c.finishComplete(seq, id, roundIndex, roundStart, final, err) }
	}, func(err error) {
		c.finishComplete(seq, id, roundIndex, roundStart, final, err)
	})
	return CompleteStarted
}

// appendHistory records the finalized values. It is best effort; failures
// and timeouts are logged only.
func (c *Controller) appendHistory(id int64, roundStart time.Time, final models.OutcomeSet) {
	roundID := id
	entry := models.HistoryEntry{
		RoundID:        &roundID,
		RoundStartTime: roundStart,
		Outcomes:       final,
	}
	logFailure := func(err error) {
		log.Error().Err(err).Int64("round_id", id).Msg("failed to append round history")
	}

	c.background(func(ctx context.Context) func() {
		_, err := c.store.AppendHistory(ctx, entry)
		return func() {
			if err != nil {
				logFailure(err)
			}
		}
	}, logFailure)
}

func (c *Controller) finishComplete(seq uint64, id int64, roundIndex int, roundStart time.Time, final models.OutcomeSet, err error) {
	if err != nil {
		c.guard.Rollback(id)
		log.Error().
			Err(err).
			Int64("round_id", id).
			Int("round_index", roundIndex).
			Msg("failed to complete round")
		c.emit(events.TypeRoundCompleteFailed, events.RoundCompleteFailedPayload{
			RoundID: id,
			Error:   err.Error(),
		})
		return
	}

	// A result for an earlier round must not touch the current one.
	if seq == c.st.roundSeq {
		c.st.completedSeq = seq
		c.st.outcomes = models.NewOutcomeSet()
		c.st.roundID = nil
	}

	log.Info().
		Int64("round_id", id).
		Int("round_index", roundIndex).
		Msg("round completed")
	c.emit(events.TypeRoundCompleted, events.RoundCompletedPayload{
		RoundID:    id,
		RoundIndex: roundIndex,
		Outcomes:   final,
	})
	c.appendHistory(id, roundStart, final)
}
