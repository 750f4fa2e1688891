package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope for every message sent to observers.
type Event struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Type is the event type sent to observers.
type Type string

const (
	TypeWindowOpened        Type = "window-opened"
	TypeRoundStart          Type = "round-start"
	TypeRoundTimer          Type = "round-timer"
	TypeOutcomeUpdate       Type = "outcome-update"
	TypeSeedUpdate          Type = "seed-update"
	TypeRoundCompleted      Type = "round-completed"
	TypeRoundCompleteFailed Type = "round-complete-failed"
	TypeWindowClosed        Type = "window-closed"
	TypeClosedTimer         Type = "closed-timer"
	TypeRoundSaved          Type = "round-saved"
	TypeStateSnapshot       Type = "state-snapshot"
	TypeError               Type = "error"
)

// Periodic reports whether events of this type fire on every tick.
func (t Type) Periodic() bool {
	return t == TypeRoundTimer || t == TypeClosedTimer
}

// New wraps a payload in an envelope.
func New(t Type, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}

// Decode unmarshals the event data into dst.
func (e Event) Decode(dst any) error {
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
