package events

import (
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/period"
)

// Payload types shared by the orchestrator and the gateway

// WindowOpenedPayload is sent when the operating window opens
type WindowOpenedPayload struct {
	Period   period.GamePeriod `json:"period"`
	Outcomes models.OutcomeSet `json:"outcomes"`
	RoundID  *int64            `json:"roundId"`
}

// RoundStartPayload is sent when a new round index begins
type RoundStartPayload struct {
	RoundIndex           int               `json:"roundIndex"`
	Duration             int               `json:"duration"`
	OutcomeSeed          models.OutcomeSet `json:"outcomeSeed"`
	RoundTimeLeftSeconds int               `json:"roundTimeLeftSeconds"`
	StartedAt            time.Time         `json:"startedAt"`
}

// RoundTimerPayload is the per-tick countdown while the window is open
type RoundTimerPayload struct {
	RoundIndex            int  `json:"roundIndex"`
	RoundTimeLeftSeconds  int  `json:"roundTimeLeftSeconds"`
	IsActive              bool `json:"isActive"`
	WindowTimeLeftSeconds *int `json:"windowTimeLeftSeconds"`
}

// OutcomeUpdatePayload carries the full outcome set after a report
type OutcomeUpdatePayload struct {
	Outcomes  models.OutcomeSet `json:"outcomes"`
	Timestamp time.Time         `json:"timestamp"`
}

// SeedUpdatePayload carries the full seed after an observer override
type SeedUpdatePayload struct {
	OutcomeSeed models.OutcomeSet `json:"outcomeSeed"`
	Timestamp   time.Time         `json:"timestamp"`
}

// RoundCompletedPayload is sent once per successfully finalized round
type RoundCompletedPayload struct {
	RoundID    int64             `json:"roundId"`
	RoundIndex int               `json:"roundIndex"`
	Outcomes   models.OutcomeSet `json:"outcomes"`
}

// RoundCompleteFailedPayload is sent when finalization could not be persisted
type RoundCompleteFailedPayload struct {
	RoundID int64  `json:"roundId"`
	Error   string `json:"error"`
}

// WindowClosedPayload is sent on the open to closed transition and, as
// closed-timer, on every closed tick
type WindowClosedPayload struct {
	TimeUntilNextWindowSeconds *int       `json:"timeUntilNextWindowSeconds"`
	NextWindowStart            *time.Time `json:"nextWindowStart"`
	StatusMessage              string     `json:"statusMessage"`
	IsActive                   bool       `json:"isActive"`
}

// RoundSavedPayload answers a persist request
type RoundSavedPayload struct {
	Success    bool   `json:"success"`
	RoundID    *int64 `json:"roundId,omitempty"`
	RoundIndex int    `json:"roundIndex"`
	Error      string `json:"error,omitempty"`
}

// StateSnapshotPayload is sent to a single observer on request
type StateSnapshotPayload struct {
	Period               period.GamePeriod `json:"period"`
	Outcomes             models.OutcomeSet `json:"outcomes"`
	Seed                 models.OutcomeSet `json:"seed"`
	RoundID              *int64            `json:"roundId"`
	RoundTimeLeftSeconds int               `json:"roundTimeLeftSeconds"`
	Completed            bool              `json:"completed"`
}

// ErrorPayload reports a rejected inbound message to its sender
type ErrorPayload struct {
	Message     string `json:"message"`
	RequestType string `json:"requestType,omitempty"`
}
