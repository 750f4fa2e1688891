package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/mcdev12/wheelround/go/internal/httputil"
	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TokenVerifier checks an operator session token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// WebSocketHandler handles WebSocket upgrade requests from observers
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	dispatcher        *Dispatcher
	verifier          TokenVerifier
	requireToken      bool
}

// NewWebSocketHandler creates a new WebSocket handler. verifier may be nil
// when requireToken is false; a token that is supplied is still checked.
func NewWebSocketHandler(cm *ConnectionManager, dispatcher *Dispatcher, verifier TokenVerifier, requireToken bool) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		dispatcher:        dispatcher,
		verifier:          verifier,
		requireToken:      requireToken,
	}
}

// HandleConnection upgrades the request and sends the current state.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := "anonymous"

	token := r.URL.Query().Get("token")
	switch {
	case token != "" && h.verifier != nil:
		user, err := h.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("rejected socket token")
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		userID = user.Username
	case h.requireToken:
		httputil.WriteError(w, http.StatusUnauthorized, "Token is required")
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Error().Err(err).Str("user_id", userID).Msg("failed to upgrade WebSocket connection")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.dispatcher.SendSnapshot(ctx, conn); err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to send initial snapshot")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.connectionManager.Stats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/socket", h.HandleConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
