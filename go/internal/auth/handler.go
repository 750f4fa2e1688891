package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mcdev12/wheelround/go/internal/httputil"
	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Handler exposes login and token verification over HTTP.
type Handler struct {
	app *App
}

// NewHandler creates a new auth handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool `json:"success"`
	*LoginResult
}

type tokenRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

// HandleLogin handles POST /api/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	result, err := h.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httputil.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login failed")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Success: true, LoginResult: result})
}

// HandleVerify handles POST /api/token/verify. The token is read from the
// body or from an Authorization bearer header.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if r.ContentLength != 0 {
		// A malformed body falls through to the header.
		_ = httputil.DecodeJSON(w, r, &req)
	}
	token := req.Token
	if token == "" {
		token = BearerToken(r)
	}
	if token == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Token is required")
		return
	}

	user, err := h.app.VerifyToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		log.Error().Err(err).Msg("token verification failed")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{Success: true, User: user})
}

// HandleLogout handles POST /api/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Token is required")
		return
	}
	if err := h.app.Logout(r.Context(), token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		log.Error().Err(err).Msg("logout failed")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RegisterRoutes registers auth routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", h.HandleLogin)
	mux.HandleFunc("POST /api/token/verify", h.HandleVerify)
	mux.HandleFunc("POST /api/logout", h.HandleLogout)
}

// BearerToken extracts a token from an Authorization header.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
