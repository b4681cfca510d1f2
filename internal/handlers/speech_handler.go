package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/models"
	"github.com/ternarybob/audile/internal/services/playback"
	"github.com/ternarybob/audile/internal/services/profile"
)

// SpeechHandler drives the playback controller. Trigger semantics live in
// the controller; this layer only resolves the voice.
type SpeechHandler struct {
	playback *playback.Controller
	profile  *profile.Service
	logger   arbor.ILogger
}

// NewSpeechHandler creates a new speech handler
func NewSpeechHandler(controller *playback.Controller, profileService *profile.Service, logger arbor.ILogger) *SpeechHandler {
	return &SpeechHandler{
		playback: controller,
		profile:  profileService,
		logger:   logger,
	}
}

// PlayHandler handles POST /api/speech/play. Triggering the active stream
// id stops it.
func (h *SpeechHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		ID    string         `json:"id"`
		Text  string         `json:"text"`
		Voice models.VoiceID `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ID == "" || req.Text == "" {
		WriteError(w, http.StatusBadRequest, "id and text are required")
		return
	}

	voice := req.Voice
	if voice == "" {
		persona, err := h.profile.DefaultPersona(r.Context())
		if err == nil {
			voice = persona.VoiceID
		}
	}

	h.playback.Trigger(r.Context(), req.ID, req.Text, h.profile.ResolveVoice(voice))
	WriteJSON(w, http.StatusOK, h.playback.Status())
}

// StopHandler handles POST /api/speech/stop.
func (h *SpeechHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.playback.Stop(r.Context())
	WriteJSON(w, http.StatusOK, h.playback.Status())
}

// StatusHandler handles GET /api/speech/status.
func (h *SpeechHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.playback.Status())
}
