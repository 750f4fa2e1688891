package models

import "time"

// RoundStatus defines the persisted status of a round.
type RoundStatus string

const (
	RoundStatusActive    RoundStatus = "active"
	RoundStatusCompleted RoundStatus = "completed"
)

// Round is a persisted round. ID is assigned by storage and is the only
// stable identity; RoundIndex restarts every window.
type Round struct {
	ID         int64       `json:"id"`
	RoundIndex int         `json:"round_index"`
	StartTime  time.Time   `json:"start_time"`
	EndTime    time.Time   `json:"end_time"`
	Outcomes   OutcomeSet  `json:"outcomes"`
	Seed       OutcomeSet  `json:"seed,omitempty"`
	Status     RoundStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewRound holds the fields needed to create a round row.
type NewRound struct {
	RoundIndex int
	StartTime  time.Time
	EndTime    time.Time
	Seed       OutcomeSet
}

// HistoryEntry is an append-only record of a round's final values.
type HistoryEntry struct {
	ID             int64      `json:"id"`
	RoundID        *int64     `json:"round_id,omitempty"`
	RoundStartTime time.Time  `json:"round_start_time"`
	Outcomes       OutcomeSet `json:"outcomes"`
	CreatedAt      time.Time  `json:"created_at"`
}
