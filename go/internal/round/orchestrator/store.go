package orchestrator

import (
	"context"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
)

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . RoundStore

// RoundStore defines what the controller needs from persistence. The hot loop
// only writes; rounds are never read back.
type RoundStore interface {
	CreateRound(ctx context.Context, round models.NewRound) (int64, error)
	UpdateRound(ctx context.Context, id int64, outcomes models.OutcomeSet, status models.RoundStatus) error
	AppendHistory(ctx context.Context, entry models.HistoryEntry) (int64, error)
}

// Broadcaster fans an event out to every observer. Implementations must not block.
type Broadcaster interface {
	Broadcast(event events.Event)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(events.Event)

// Broadcast implements Broadcaster.
func (f BroadcasterFunc) Broadcast(e events.Event) { f(e) }
