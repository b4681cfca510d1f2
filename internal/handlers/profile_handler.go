package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/models"
	"github.com/ternarybob/audile/internal/services/profile"
)

// ProfileHandler exposes the user profile, voice personas and the static
// language/voice catalogs.
type ProfileHandler struct {
	profile *profile.Service
	logger  arbor.ILogger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service, logger arbor.ILogger) *ProfileHandler {
	return &ProfileHandler{
		profile: profileService,
		logger:  logger,
	}
}

// ProfileRoute handles GET and PUT on /api/profile.
func (h *ProfileHandler) ProfileRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		p, err := h.profile.Get(r.Context())
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var req struct {
			Name  string `json:"name"`
			Photo string `json:"photo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		p, err := h.profile.Update(r.Context(), req.Name, req.Photo)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// PersonasHandler handles POST /api/profile/personas (add), and
// PUT/DELETE /api/profile/personas?index=n.
func (h *ProfileHandler) PersonasHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			VoiceID    models.VoiceID `json:"voiceId"`
			CustomName string         `json:"customName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		p, err := h.profile.AddPersona(r.Context(), req.VoiceID, req.CustomName)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var req struct {
			Index      int    `json:"index"`
			CustomName string `json:"customName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		p, err := h.profile.RenamePersona(r.Context(), req.Index, req.CustomName)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		p, err := h.profile.RemovePersona(r.Context(), req.Index)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, p)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// LanguagesHandler handles GET /api/catalog/languages.
func (h *ProfileHandler) LanguagesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, models.Languages)
}

// VoicesHandler handles GET /api/catalog/voices.
func (h *ProfileHandler) VoicesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, models.BaseVoices)
}
