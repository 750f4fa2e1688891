package mirror

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/rs/zerolog/log"
)

// EventPublisher delivers one event to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Config struct {
	BufferSize      int
	PublishTimeout  time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	IncludePeriodic bool
}

func DefaultConfig() Config {
	return Config{
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Worker mirrors broadcast events to a publisher without blocking the
// caller. Timer ticks are skipped unless IncludePeriodic is set.
type Worker struct {
	publisher EventPublisher
	config    Config
	queue     chan events.Event

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewWorker(publisher EventPublisher, cfg Config) *Worker {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &Worker{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan events.Event, cfg.BufferSize),
	}
}

// Broadcast queues the event for publishing. A full queue drops the event.
func (w *Worker) Broadcast(event events.Event) {
	if event.Type.Periodic() && !w.config.IncludePeriodic {
		return
	}
	select {
	case w.queue <- event:
	default:
		w.dropped.Add(1)
		log.Warn().Str("event_type", string(event.Type)).Msg("mirror queue full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is
// left with a fresh deadline.
func (w *Worker) Run(ctx context.Context) error {
	log.Info().Int("buffer_size", w.config.BufferSize).Msg("event mirror started")
	for {
		select {
		case <-ctx.Done():
			w.drain()
			log.Info().
				Int64("published", w.published.Load()).
				Int64("failed", w.failed.Load()).
				Int64("dropped", w.dropped.Load()).
				Msg("event mirror stopped")
			return nil
		case event := <-w.queue:
			w.publish(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.PublishTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.queue:
			w.publish(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, event events.Event) {
	var err error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 && !sleepCtx(ctx, w.config.RetryDelay) {
			break
		}

		pctx, cancel := context.WithTimeout(ctx, w.config.PublishTimeout)
		err = w.publisher.Publish(pctx, event)
		cancel()
		if err == nil {
			w.published.Add(1)
			return
		}
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Int("attempt", attempt+1).
			Msg("failed to mirror event")
	}

	w.failed.Add(1)
	log.Error().Err(err).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("giving up on mirrored event")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Stats holds mirror counters.
type Stats struct {
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Queued    int   `json:"queued"`
}

func (w *Worker) Stats() Stats {
	return Stats{
		Published: w.published.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
		Queued:    len(w.queue),
	}
}
