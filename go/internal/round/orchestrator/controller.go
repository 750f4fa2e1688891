package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/mcdev12/wheelround/go/internal/round/outcome"
	"github.com/mcdev12/wheelround/go/internal/round/period"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoOpenRound    = errors.New("no round is open")
	ErrStaleRound     = errors.New("round is not the current round")
	ErrRoundFinalized = errors.New("round is already finalized")
	ErrStopped        = errors.New("controller stopped")
	ErrStoreTimeout   = errors.New("persistence gateway did not respond")
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Config holds the controller's timing settings.
type Config struct {
	TickInterval   time.Duration
	PersistTimeout time.Duration
}

// DefaultConfig returns a one second tick and a ten second persistence timeout.
func DefaultConfig() Config {
	return Config{
		TickInterval:   time.Second,
		PersistTimeout: 10 * time.Second,
	}
}

// Controller owns the round lifecycle. All state is mutated on the goroutine
// running Run; other goroutines talk to it through commands.
type Controller struct {
	calc        *period.Calculator
	gen         outcome.Generator
	store       RoundStore
	broadcaster Broadcaster
	clock       Clock
	cfg         Config
	guard       *CompletionGuard

	cmdCh    chan func()
	done     chan struct{}
	doneOnce sync.Once
	inFlight sync.WaitGroup

	// runCtx is the context passed to Run. Only read on the Run goroutine.
	runCtx context.Context
	st     roundState
}

// roundState is the in-memory state of the current window and round.
type roundState struct {
	open       bool
	roundIndex int
	// roundSeq changes every time a round begins or the window closes so that
	// late persistence results can tell they belong to an old round.
	roundSeq   uint64
	roundStart time.Time
	windowEnd  time.Time
	outcomes   models.OutcomeSet
	seed       models.OutcomeSet
	roundID    *int64
	persisting bool

	// completedSeq is the roundSeq of the last round finalized in storage.
	completedSeq uint64
}

// NewController wires a controller. Use WithClock to replace the real clock.
func NewController(calc *period.Calculator, gen outcome.Generator, store RoundStore, broadcaster Broadcaster, cfg Config, opts ...Option) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultConfig().PersistTimeout
	}

	c := &Controller{
		calc:        calc,
		gen:         gen,
		store:       store,
		broadcaster: broadcaster,
		clock:       clockwork.NewRealClock(),
		cfg:         cfg,
		guard:       NewCompletionGuard(),
		cmdCh:       make(chan func()),
		done:        make(chan struct{}),
		st:          roundState{outcomes: models.NewOutcomeSet()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// Run drives the lifecycle until ctx is cancelled. It ticks once immediately
// and then every TickInterval.
func (c *Controller) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	c.runCtx = ctx
	log.Info().
		Dur("tick_interval", c.cfg.TickInterval).
		Dur("round_duration", c.calc.RoundDuration()).
		Msg("round controller started")

	c.tick(c.clock.Now())

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-ticker.Chan():
			c.tick(c.clock.Now())
		case fn := <-c.cmdCh:
			fn()
		}
	}
}

func (c *Controller) shutdown() {
	log.Info().Msg("round controller shutting down")
	c.doneOnce.Do(func() { close(c.done) })
	c.inFlight.Wait()
	if c.st.roundID != nil && !c.guard.Holds(*c.st.roundID) {
		log.Warn().
			Int64("round_id", *c.st.roundID).
			Int("round_index", c.st.roundIndex).
			Msg("shutting down with an unfinalized round")
	}
	log.Info().Msg("round controller stopped")
}

// exec runs fn on the controller goroutine.
func (c *Controller) exec(ctx context.Context, fn func()) error {
	select {
	case c.cmdCh <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// post delivers the result of background work back to the controller. It gives
// up once the controller has stopped.
func (c *Controller) post(fn func()) {
	select {
	case c.cmdCh <- fn:
	case <-c.done:
	}
}

// background runs work off the controller goroutine with a persistence
// timeout and posts the function it returns. If the deadline passes first,
// timedOut is posted instead and the late result is dropped.
func (c *Controller) background(work func(ctx context.Context) func(), timedOut func(err error)) {
	parent := c.runCtx
	if parent == nil {
		parent = context.Background()
	}
	c.inFlight.Add(1)
	go func() {
		defer c.inFlight.Done()
		ctx, cancel := context.WithTimeout(parent, c.cfg.PersistTimeout)
		defer cancel()

		result := make(chan func(), 1)
		go func() { result <- work(ctx) }()

		select {
		case fn := <-result:
			c.post(fn)
		case <-ctx.Done():
			err := fmt.Errorf("%w: %v", ErrStoreTimeout, ctx.Err())
			c.post(func() { timedOut(err) })
		}
	}()
}

// Snapshot returns the current state for a single observer.
func (c *Controller) Snapshot(ctx context.Context) (events.StateSnapshotPayload, error) {
	reply := make(chan events.StateSnapshotPayload, 1)
	if err := c.exec(ctx, func() { reply <- c.snapshot(c.clock.Now()) }); err != nil {
		return events.StateSnapshotPayload{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return events.StateSnapshotPayload{}, ctx.Err()
	case <-c.done:
		return events.StateSnapshotPayload{}, ErrStopped
	}
}

// ReportOutcome records a value for one category of the open round and
// broadcasts the full outcome set. at is the observer's timestamp, if any.
func (c *Controller) ReportOutcome(ctx context.Context, category models.Category, value int, at *time.Time) error {
	if _, err := models.ParseCategory(string(category)); err != nil {
		return err
	}
	if err := models.ValidateValue(value); err != nil {
		return err
	}
	return c.call(ctx, func() error { return c.reportOutcome(category, value, at) })
}

// UpdateSeed overrides one category of the open round's seed and broadcasts
// the whole seed. at is the observer's timestamp, if any.
func (c *Controller) UpdateSeed(ctx context.Context, category models.Category, value int, at *time.Time) error {
	if _, err := models.ParseCategory(string(category)); err != nil {
		return err
	}
	if err := models.ValidateValue(value); err != nil {
		return err
	}
	return c.call(ctx, func() error { return c.updateSeed(category, value, at) })
}

// RequestPersist asks for the open round to be created in storage. The result
// is broadcast as round-saved; the returned error only covers rejected requests.
func (c *Controller) RequestPersist(ctx context.Context, roundIndex int, seed models.OutcomeSet) error {
	return c.call(ctx, func() error { return c.persist(roundIndex, seed) })
}

// RequestComplete finalizes the current round. requested is informational;
// the controller's own round id is authoritative.
func (c *Controller) RequestComplete(ctx context.Context, requested *int64) (CompleteResult, error) {
	reply := make(chan CompleteResult, 1)
	if err := c.exec(ctx, func() { reply <- c.complete(requested) }); err != nil {
		return CompleteNoRound, err
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return CompleteNoRound, ctx.Err()
	case <-c.done:
		return CompleteNoRound, ErrStopped
	}
}

func (c *Controller) call(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	if err := c.exec(ctx, func() { reply <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *Controller) emit(t events.Type, payload any) {
	ev, err := events.New(t, c.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to build event")
		return
	}
	c.broadcaster.Broadcast(ev)
}
