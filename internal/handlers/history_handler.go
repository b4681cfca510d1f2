package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/services/export"
	"github.com/ternarybob/audile/internal/services/ledger"
	"github.com/ternarybob/audile/internal/services/orchestrator"
)

// HistoryHandler exposes history listing, resume, blob re-attach, page
// navigation and study-notes export.
type HistoryHandler struct {
	ledger       *ledger.Service
	orchestrator *orchestrator.Orchestrator
	export       *export.Service
	logger       arbor.ILogger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(ledgerService *ledger.Service, orch *orchestrator.Orchestrator, exportService *export.Service, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		ledger:       ledgerService,
		orchestrator: orch,
		export:       exportService,
		logger:       logger,
	}
}

// ListHandler handles GET /api/history.
func (h *HistoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries, err := h.ledger.List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// EntryHandler routes /api/history/{id} and its subpaths.
func (h *HistoryHandler) EntryHandler(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/api/history/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing history entry id")
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/resume") && r.Method == http.MethodPost:
		h.resume(w, r, id)
	case strings.HasSuffix(r.URL.Path, "/blob") && r.Method == http.MethodPost:
		h.reattach(w, r, id)
	case strings.HasSuffix(r.URL.Path, "/export") && r.Method == http.MethodGet:
		h.exportNotes(w, r, id)
	case strings.HasSuffix(r.URL.Path, "/page") && r.Method == http.MethodPut:
		h.setPage(w, r, id)
	case r.Method == http.MethodGet:
		h.get(w, r, id)
	case r.Method == http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HistoryHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

func (h *HistoryHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "History entry deleted")
}

// resume reopens an entry. The document bytes are not echoed back; the
// client fetches pages through the page image endpoint.
func (h *HistoryHandler) resume(w http.ResponseWriter, r *http.Request, id string) {
	resumed, err := h.orchestrator.Resume(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entry":         resumed.Entry,
		"page":          resumed.Page,
		"pageResult":    resumed.PageResult,
		"needsReupload": resumed.NeedsReupload,
	})
}

func (h *HistoryHandler) reattach(w http.ResponseWriter, r *http.Request, id string) {
	files, err := readUploads(r, "file", true)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, "Missing file upload")
		return
	}

	if err := h.orchestrator.ReattachBlob(r.Context(), id, files[0]); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Document re-attached")
}

func (h *HistoryHandler) exportNotes(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	pdf, err := h.export.StudyNotes(entry)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Title+" - notes.pdf"))
	w.Write(pdf)
}

func (h *HistoryHandler) setPage(w http.ResponseWriter, r *http.Request, id string) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		WriteError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	if err := h.ledger.SetLastViewedPage(r.Context(), id, page); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Page recorded")
}

// PageImageHandler handles GET /api/sessions/{id}/pages/{n}, serving the
// rasterized page JPEG.
func (h *HistoryHandler) PageImageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "pages" {
		WriteError(w, http.StatusBadRequest, "Expected /api/sessions/{id}/pages/{n}")
		return
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 1 {
		WriteError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	jpeg, err := h.orchestrator.PageImage(r.Context(), parts[0], page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(jpeg)
}
