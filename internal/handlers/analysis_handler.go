package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/services/orchestrator"
)

// AnalysisHandler exposes the three analysis flows over HTTP. Explain and
// vocal take a single file; assess takes many.
type AnalysisHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(orch *orchestrator.Orchestrator, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: orch,
		logger:       logger,
	}
}

// ExplainHandler handles POST /api/analyze/explain (multipart form).
// Fields: text | file | sessionId+page, language, title, force.
func (h *AnalysisHandler) ExplainHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	files, err := readUploads(r, "file", true)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := orchestrator.ExplainRequest{
		SessionID: r.FormValue("sessionId"),
		Text:      r.FormValue("text"),
		Title:     r.FormValue("title"),
		Language:  formLanguage(r),
		Force:     r.FormValue("force") == "true",
	}
	if page, err := strconv.Atoi(r.FormValue("page")); err == nil {
		req.Page = page
	}
	if len(files) > 0 {
		req.File = &files[0]
	}

	resp, err := h.orchestrator.Explain(r.Context(), req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Explain request failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// AssessHandler handles POST /api/analyze/assess (multipart form).
// Fields: answers (repeated), referenceMode, referenceText, referenceFile,
// language, title.
func (h *AnalysisHandler) AssessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	answers, err := readUploads(r, "answers", false)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	referenceFiles, err := readUploads(r, "referenceFile", true)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := orchestrator.AssessRequest{
		Answers:       answers,
		Mode:          referenceMode(r, orchestrator.ReferenceNone),
		ReferenceText: r.FormValue("referenceText"),
		Title:         r.FormValue("title"),
		Language:      formLanguage(r),
	}
	if len(referenceFiles) > 0 {
		req.ReferenceFile = &referenceFiles[0]
	}

	entry, err := h.orchestrator.Assess(r.Context(), req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Assess request failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, entry)
}

// VocalHandler handles POST /api/analyze/vocal (multipart form).
// Fields: audio, referenceMode, referenceText, referenceFile, language,
// title.
func (h *AnalysisHandler) VocalHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	audioFiles, err := readUploads(r, "audio", true)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	referenceFiles, err := readUploads(r, "referenceFile", true)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := orchestrator.VocalRequest{
		Mode:          referenceMode(r, orchestrator.ReferenceText),
		ReferenceText: r.FormValue("referenceText"),
		Title:         r.FormValue("title"),
		Language:      formLanguage(r),
	}
	if len(audioFiles) > 0 {
		req.Audio = audioFiles[0].Data
	}
	if len(referenceFiles) > 0 {
		req.ReferenceFile = &referenceFiles[0]
	}

	entry, err := h.orchestrator.ValidateVocal(r.Context(), req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Vocal validation request failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, entry)
}

// StateHandler handles GET /api/analyze/state.
func (h *AnalysisHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"state": string(h.orchestrator.State())})
}

func formLanguage(r *http.Request) string {
	if language := r.FormValue("language"); language != "" {
		return language
	}
	return "English"
}

func referenceMode(r *http.Request, fallback orchestrator.ReferenceMode) orchestrator.ReferenceMode {
	if mode := r.FormValue("referenceMode"); mode != "" {
		return orchestrator.ReferenceMode(mode)
	}
	return fallback
}
