package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/mcdev12/wheelround/go/internal/round/orchestrator"
	"github.com/rs/zerolog/log"
)

// Inbound message types
const (
	RequestSnapshot      = "request-snapshot"
	RequestReportOutcome = "report-outcome"
	RequestUpdateSeed    = "update-seed"
	RequestPersistRound  = "request-persist-round"
	RequestCompleteRound = "request-complete-round"
)

// ClientMessage is the envelope observers send.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ReportOutcomeRequest sets one category's value. It is the body of both
// report-outcome and update-seed.
type ReportOutcomeRequest struct {
	Category  string     `json:"category"`
	Value     *int       `json:"value"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// PersistRoundRequest asks for the open round to be stored.
type PersistRoundRequest struct {
	RoundIndex *int              `json:"roundIndex"`
	Seed       models.OutcomeSet `json:"seed,omitempty"`
}

// CompleteRoundRequest asks for the current round to be finalized.
type CompleteRoundRequest struct {
	RoundID *int64 `json:"roundId,omitempty"`
}

// RoundController is what the gateway needs from the lifecycle controller
type RoundController interface {
	Snapshot(ctx context.Context) (events.StateSnapshotPayload, error)
	ReportOutcome(ctx context.Context, category models.Category, value int, at *time.Time) error
	UpdateSeed(ctx context.Context, category models.Category, value int, at *time.Time) error
	RequestPersist(ctx context.Context, roundIndex int, seed models.OutcomeSet) error
	RequestComplete(ctx context.Context, requested *int64) (orchestrator.CompleteResult, error)
}

// Sender delivers an event to a single connection.
type Sender interface {
	SendTo(conn *Connection, event events.Event)
}

// errMalformed marks requests rejected before reaching the controller.
var errMalformed = errors.New("malformed request")

// Dispatcher validates inbound messages and forwards them to the controller.
// Rejected messages are answered with an error event to the sender only.
type Dispatcher struct {
	controller RoundController
	sender     Sender
	timeout    time.Duration
}

// NewDispatcher creates a dispatcher with a per-request timeout.
func NewDispatcher(controller RoundController, sender Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{controller: controller, sender: sender, timeout: timeout}
}

// HandleMessage implements MessageHandler.
func (d *Dispatcher) HandleMessage(conn *Connection, message []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		d.reject(conn, "", fmt.Errorf("%w: %v", errMalformed, err))
		return
	}

	var err error
	switch msg.Type {
	case RequestSnapshot:
		err = d.SendSnapshot(ctx, conn)
	case RequestReportOutcome:
		err = d.setValue(ctx, msg.Data, d.controller.ReportOutcome)
	case RequestUpdateSeed:
		err = d.setValue(ctx, msg.Data, d.controller.UpdateSeed)
	case RequestPersistRound:
		err = d.persistRound(ctx, msg.Data)
	case RequestCompleteRound:
		err = d.completeRound(ctx, conn, msg.Data)
	default:
		err = fmt.Errorf("%w: unknown type %q", errMalformed, msg.Type)
	}
	if err != nil {
		d.reject(conn, msg.Type, err)
	}
}

// SendSnapshot sends the current state to one connection.
func (d *Dispatcher) SendSnapshot(ctx context.Context, conn *Connection) error {
	snap, err := d.controller.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to get snapshot: %w", err)
	}
	ev, err := events.New(events.TypeStateSnapshot, time.Now(), snap)
	if err != nil {
		return err
	}
	d.sender.SendTo(conn, ev)
	return nil
}

type setValueFunc func(ctx context.Context, category models.Category, value int, at *time.Time) error

func (d *Dispatcher) setValue(ctx context.Context, data json.RawMessage, set setValueFunc) error {
	var req ReportOutcomeRequest
	if err := decodeData(data, &req); err != nil {
		return err
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if req.Value == nil {
		return fmt.Errorf("%w: value is required", errMalformed)
	}
	if err := models.ValidateValue(*req.Value); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return set(ctx, category, *req.Value, req.Timestamp)
}

func (d *Dispatcher) persistRound(ctx context.Context, data json.RawMessage) error {
	var req PersistRoundRequest
	if err := decodeData(data, &req); err != nil {
		return err
	}
	if req.RoundIndex == nil || *req.RoundIndex < 1 {
		return fmt.Errorf("%w: roundIndex is required", errMalformed)
	}
	if req.Seed != nil {
		for c, v := range req.Seed {
			if _, err := models.ParseCategory(string(c)); err != nil {
				return fmt.Errorf("%w: %v", errMalformed, err)
			}
			if v != nil {
				if err := models.ValidateValue(*v); err != nil {
					return fmt.Errorf("%w: %v", errMalformed, err)
				}
			}
		}
	}
	return d.controller.RequestPersist(ctx, *req.RoundIndex, req.Seed)
}

func (d *Dispatcher) completeRound(ctx context.Context, conn *Connection, data json.RawMessage) error {
	var req CompleteRoundRequest
	if len(data) > 0 {
		if err := decodeData(data, &req); err != nil {
			return err
		}
	}
	result, err := d.controller.RequestComplete(ctx, req.RoundID)
	if err != nil {
		return err
	}
	log.Debug().
		Str("connection_id", conn.ID).
		Str("result", result.String()).
		Msg("completion request handled")
	return nil
}

func (d *Dispatcher) reject(conn *Connection, requestType string, err error) {
	log.Warn().
		Err(err).
		Str("connection_id", conn.ID).
		Str("request_type", requestType).
		Msg("rejected client message")

	ev, buildErr := events.New(events.TypeError, time.Now(), events.ErrorPayload{
		Message:     err.Error(),
		RequestType: requestType,
	})
	if buildErr != nil {
		log.Error().Err(buildErr).Msg("failed to build error event")
		return
	}
	d.sender.SendTo(conn, ev)
}

func decodeData(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: data is required", errMalformed)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}
