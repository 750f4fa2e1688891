package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mcdev12/wheelround/go/internal/httputil"
	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/mcdev12/wheelround/go/internal/round/events"
	"github.com/mcdev12/wheelround/go/internal/round/repository"
	"github.com/rs/zerolog/log"
)

// HistoryStore is the slice of persistence the HTTP API reads and writes.
type HistoryStore interface {
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	AppendHistory(ctx context.Context, entry models.HistoryEntry) (int64, error)
	ListHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

// StateHandler serves round state and history over HTTP
type StateHandler struct {
	controller RoundController
	history    HistoryStore
}

// NewStateHandler creates a new state handler
func NewStateHandler(controller RoundController, history HistoryStore) *StateHandler {
	return &StateHandler{controller: controller, history: history}
}

type stateResponse struct {
	Success bool                        `json:"success"`
	State   events.StateSnapshotPayload `json:"state"`
}

type roundResponse struct {
	Success bool          `json:"success"`
	Round   *models.Round `json:"round"`
}

type historyResponse struct {
	Success bool                  `json:"success"`
	Data    []models.HistoryEntry `json:"data"`
}

type historyInsertResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// HistoryRequest is the body of POST /api/history. Every category is required.
type HistoryRequest struct {
	A1             *int       `json:"a1"`
	A2             *int       `json:"a2"`
	B1             *int       `json:"b1"`
	B2             *int       `json:"b2"`
	C1             *int       `json:"c1"`
	C2             *int       `json:"c2"`
	RoundID        *int64     `json:"roundId,omitempty"`
	RoundStartTime *time.Time `json:"roundStartTime,omitempty"`
}

var errIncompleteHistory = errors.New("all wheel values are required")

// Outcomes validates the request and converts it to an outcome set.
func (req HistoryRequest) Outcomes() (models.OutcomeSet, error) {
	values := map[models.Category]*int{
		models.CategoryA1: req.A1,
		models.CategoryA2: req.A2,
		models.CategoryB1: req.B1,
		models.CategoryB2: req.B2,
		models.CategoryC1: req.C1,
		models.CategoryC2: req.C2,
	}
	out := models.NewOutcomeSet()
	for c, v := range values {
		if v == nil {
			return nil, errIncompleteHistory
		}
		if err := out.Set(c, *v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// HandleGetState handles GET /api/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get round state")
		httputil.WriteError(w, http.StatusServiceUnavailable, "Round state unavailable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stateResponse{Success: true, State: snap})
}

// HandleGetRound handles GET /api/rounds/{id}
func (h *StateHandler) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid round id")
		return
	}

	round, err := h.history.GetRound(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRoundNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "Round not found")
			return
		}
		log.Error().Err(err).Int64("round_id", id).Msg("failed to get round")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roundResponse{Success: true, Round: round})
}

// HandleListHistory handles GET /api/history
func (h *StateHandler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.history.ListHistory(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list history")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Success: true, Data: entries})
}

// HandleInsertHistory handles POST /api/history
func (h *StateHandler) HandleInsertHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}
	outcomes, err := req.Outcomes()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := models.HistoryEntry{
		RoundID:        req.RoundID,
		RoundStartTime: time.Now().UTC(),
		Outcomes:       outcomes,
	}
	if req.RoundStartTime != nil {
		entry.RoundStartTime = *req.RoundStartTime
	}

	id, err := h.history.AppendHistory(r.Context(), entry)
	if err != nil {
		log.Error().Err(err).Msg("failed to insert history")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historyInsertResponse{Success: true, ID: id})
}

// RegisterRoutes registers state routes with an HTTP mux
func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.HandleGetState)
	mux.HandleFunc("GET /api/rounds/{id}", h.HandleGetRound)
	mux.HandleFunc("GET /api/history", h.HandleListHistory)
	mux.HandleFunc("POST /api/history", h.HandleInsertHistory)
}
