package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/services/auth"
)

// AuthHandler exposes the local login stub.
type AuthHandler struct {
	auth   *auth.Service
	logger arbor.ILogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

// StatusHandler handles GET /api/auth/status.
func (h *AuthHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	loggedIn, err := h.auth.IsLoggedIn(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"loggedIn": loggedIn})
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.auth.Login(r.Context(), req.Name, req.Photo); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteSuccess(w, "Logged in")
}

// LogoutHandler handles POST /api/auth/logout.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.auth.Logout(r.Context()); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Logged out")
}
