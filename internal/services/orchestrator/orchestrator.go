// -----------------------------------------------------------------------
// Request Orchestrator - builds payloads, dispatches, records results
// -----------------------------------------------------------------------

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/common"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
	"github.com/ternarybob/audile/internal/services/ledger"
	"github.com/ternarybob/audile/internal/services/profile"
)

// State of the orchestrator's single analysis slot.
type State string

const (
	StateIdle             State = "idle"
	StateBuildingPayload  State = "building_payload"
	StateAwaitingResponse State = "awaiting_response"
	StateSucceeded        State = "succeeded"
	StateFailed           State = "failed"
)

// ErrAnalysisInFlight is returned while another analysis is still running.
// There is no queueing and no cancellation.
var ErrAnalysisInFlight = errors.New("an analysis is already in progress")

// session is the transient per-document state kept while a pdf session is
// open. The blob store remains the durable copy.
type session struct {
	doc      *models.DocumentSession
	data     []byte
	mimeType string
}

// Orchestrator serializes analysis requests: payloads are fully built before
// dispatch, one request is in flight at a time, and every completed explain
// run lands in the ledger before the caller sees the result.
type Orchestrator struct {
	ai       interfaces.AIService
	pdf      interfaces.PDFService
	renderer interfaces.PageRenderer
	ledger   *ledger.Service
	profile  *profile.Service
	events   interfaces.EventService
	logger   arbor.ILogger
	validate *validator.Validate

	mu       sync.Mutex
	state    State
	inFlight bool
	sessions map[string]*session
}

// NewOrchestrator creates the request orchestrator.
func NewOrchestrator(
	ai interfaces.AIService,
	pdf interfaces.PDFService,
	renderer interfaces.PageRenderer,
	ledgerService *ledger.Service,
	profileService *profile.Service,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		ai:       ai,
		pdf:      pdf,
		renderer: renderer,
		ledger:   ledgerService,
		profile:  profileService,
		events:   events,
		logger:   logger,
		validate: validator.New(),
		state:    StateIdle,
		sessions: make(map[string]*session),
	}
}

// State returns the current analysis slot state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// begin claims the analysis slot or fails with ErrAnalysisInFlight.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return ErrAnalysisInFlight
	}
	o.inFlight = true
	o.state = StateBuildingPayload
	return nil
}

// finish releases the slot. The in-flight flag clears on every path.
func (o *Orchestrator) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	if err != nil {
		o.state = StateFailed
	} else {
		o.state = StateSucceeded
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Explain analyzes pasted text, a fresh upload, or one page of an open pdf
// session. Cached pages are served without dispatch unless Force is set.
func (o *Orchestrator) Explain(ctx context.Context, req ExplainRequest) (resp *ExplainResponse, err error) {
	if err := o.validateRequest(req); err != nil {
		return nil, err
	}
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer func() { o.finish(err) }()

	switch {
	case req.SessionID != "":
		resp, err = o.explainSessionPage(ctx, req)
	case req.File != nil:
		resp, err = o.explainUpload(ctx, req)
	case strings.TrimSpace(req.Text) != "":
		resp, err = o.explainText(ctx, req)
	default:
		err = interfaces.NewValidationError("Provide text, a file, or a session page to analyze.")
	}
	return resp, err
}

// explainText handles pasted text content.
func (o *Orchestrator) explainText(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	sessionID := common.NewSessionID()
	payload := interfaces.ContentPayload{Text: req.Text}
	title := req.Title
	if title == "" {
		title = titleFromText(req.Text)
	}

	result, err := o.dispatchExplain(ctx, sessionID, payload, req.Language)
	if err != nil {
		return nil, err
	}

	if _, err := o.ledger.RecordResult(ctx, sessionID, models.KindText, title, req.Language, req.Text, 0, 0, result); err != nil {
		o.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to record result")
	}
	o.bumpCounter(ctx)

	return &ExplainResponse{SessionID: sessionID, Kind: models.KindText, Result: result}, nil
}

// explainUpload handles a new file upload. Only the first selected file is
// honored; PDFs open a multi-page session starting at page 1.
func (o *Orchestrator) explainUpload(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	file := req.File
	if !file.IsPDF() && !file.IsImage() {
		return nil, interfaces.NewValidationError(fmt.Sprintf("Unsupported file type %q. Upload a PDF or an image.", file.ContentType))
	}
	if len(file.Data) == 0 {
		return nil, interfaces.NewValidationError("Uploaded file is empty.")
	}

	title := req.Title
	if title == "" {
		title = file.Name
	}

	if file.IsImage() {
		sessionID := common.NewSessionID()
		payload := interfaces.ContentPayload{Data: file.Data, MIMEType: file.ContentType}

		result, err := o.dispatchExplain(ctx, sessionID, payload, req.Language)
		if err != nil {
			return nil, err
		}

		if _, err := o.ledger.RecordResult(ctx, sessionID, models.KindImage, title, req.Language, "", 0, 0, result); err != nil {
			o.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to record result")
		}
		o.bumpCounter(ctx)

		return &ExplainResponse{SessionID: sessionID, Kind: models.KindImage, Result: result}, nil
	}

	sess, err := o.openPDFSession(ctx, title, req.Language, file)
	if err != nil {
		return nil, err
	}

	pageReq := req
	pageReq.SessionID = sess.doc.ID
	pageReq.Page = 1
	pageReq.Title = title
	return o.explainSessionPage(ctx, pageReq)
}

// explainSessionPage analyzes one page of an open pdf session.
func (o *Orchestrator) explainSessionPage(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	sess, err := o.resolveSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	if sess.doc.TotalPages > 0 && page > sess.doc.TotalPages {
		return nil, interfaces.NewValidationError(fmt.Sprintf("Page %d is past the end of the document (%d pages).", page, sess.doc.TotalPages))
	}

	// Serve the cache unless forced.
	if !req.Force {
		if entry, err := o.ledger.Get(ctx, sess.doc.ID); err == nil {
			if cached := o.ledger.LookupPageResult(entry, page); cached != nil {
				if err := o.ledger.SetLastViewedPage(ctx, sess.doc.ID, page); err != nil {
					o.logger.Warn().Err(err).Msg("Failed to record page navigation")
				}
				return &ExplainResponse{
					SessionID:  sess.doc.ID,
					Kind:       models.KindPDF,
					Page:       page,
					TotalPages: sess.doc.TotalPages,
					Cached:     true,
					Result:     cached,
				}, nil
			}
		}
	}

	jpeg, err := o.renderer.RenderPage(ctx, sess.data, page)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	payload := interfaces.ContentPayload{Data: jpeg, MIMEType: "image/jpeg"}
	result, err := o.dispatchExplain(ctx, sess.doc.ID, payload, req.Language)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = sess.doc.Title
	}
	if _, err := o.ledger.RecordResult(ctx, sess.doc.ID, models.KindPDF, title, req.Language, "", page, sess.doc.TotalPages, result); err != nil {
		o.logger.Error().Err(err).Str("session_id", sess.doc.ID).Msg("Failed to record page result")
	}
	o.bumpCounter(ctx)

	sess.doc.CurrentPage = page

	return &ExplainResponse{
		SessionID:  sess.doc.ID,
		Kind:       models.KindPDF,
		Page:       page,
		TotalPages: sess.doc.TotalPages,
		Result:     result,
	}, nil
}

// Assess grades the uploaded answer sheets against the chosen reference.
// All validation happens before any network call.
func (o *Orchestrator) Assess(ctx context.Context, req AssessRequest) (entry *models.HistoryEntry, err error) {
	if err := o.validateRequest(req); err != nil {
		return nil, err
	}
	if len(req.Answers) == 0 {
		return nil, interfaces.NewValidationError("Upload at least one answer sheet.")
	}

	referenceText, err := o.resolveReferenceText(ctx, req.Mode, req.ReferenceText, req.ReferenceFile)
	if err != nil {
		return nil, err
	}

	if err := o.begin(); err != nil {
		return nil, err
	}
	defer func() { o.finish(err) }()

	images, err := o.flattenAnswers(ctx, req.Answers)
	if err != nil {
		return nil, err
	}

	sessionID := common.NewSessionID()
	o.setState(StateAwaitingResponse)
	o.publish(ctx, interfaces.EventAnalysisStarted, map[string]string{"id": sessionID, "module": string(models.ModuleAssess)})

	result, err := o.ai.Assess(ctx, images, referenceText, req.Language)
	if err != nil {
		o.publish(ctx, interfaces.EventAnalysisFailed, map[string]string{"id": sessionID, "error": err.Error()})
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = "Assessment"
	}
	entry, err = o.ledger.RecordAssessment(ctx, sessionID, title, req.Language, result)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, interfaces.EventAnalysisCompleted, map[string]string{"id": sessionID, "module": string(models.ModuleAssess)})
	return entry, nil
}

// ValidateVocal grades a spoken answer against the reference.
func (o *Orchestrator) ValidateVocal(ctx context.Context, req VocalRequest) (entry *models.HistoryEntry, err error) {
	if err := o.validateRequest(req); err != nil {
		return nil, err
	}
	if len(req.Audio) == 0 {
		return nil, interfaces.NewValidationError("Record an answer before validating.")
	}

	reference, err := o.resolveReferencePayload(req.Mode, req.ReferenceText, req.ReferenceFile)
	if err != nil {
		return nil, err
	}

	if err := o.begin(); err != nil {
		return nil, err
	}
	defer func() { o.finish(err) }()

	sessionID := common.NewSessionID()
	o.setState(StateAwaitingResponse)
	o.publish(ctx, interfaces.EventAnalysisStarted, map[string]string{"id": sessionID, "module": string(models.ModuleVocal)})

	result, err := o.ai.ValidateVocal(ctx, req.Audio, reference, req.Language)
	if err != nil {
		o.publish(ctx, interfaces.EventAnalysisFailed, map[string]string{"id": sessionID, "error": err.Error()})
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = "Vocal practice"
	}
	entry, err = o.ledger.RecordVocal(ctx, sessionID, title, req.Language, result)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, interfaces.EventAnalysisCompleted, map[string]string{"id": sessionID, "module": string(models.ModuleVocal)})
	return entry, nil
}

// PageImage serves the rasterized JPEG of a session page and records the
// navigation.
func (o *Orchestrator) PageImage(ctx context.Context, sessionID string, page int) ([]byte, error) {
	sess, err := o.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	jpeg, err := o.renderer.RenderPage(ctx, sess.data, page)
	if err != nil {
		return nil, err
	}

	if err := o.ledger.SetLastViewedPage(ctx, sessionID, page); err != nil {
		o.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record page navigation")
	}
	sess.doc.CurrentPage = page

	return jpeg, nil
}

// Resume reopens a history entry, rehydrating the transient session when the
// blob survived.
func (o *Orchestrator) Resume(ctx context.Context, id string) (*ledger.ResumedSession, error) {
	resumed, err := o.ledger.Resume(ctx, id)
	if err != nil {
		return nil, err
	}

	if resumed.Entry.Kind == models.KindPDF && !resumed.NeedsReupload {
		totalPages := 0
		if resumed.Entry.PDFData != nil {
			totalPages = resumed.Entry.PDFData.TotalPages
		}
		o.mu.Lock()
		o.sessions[id] = &session{
			doc: &models.DocumentSession{
				ID:          id,
				Kind:        models.KindPDF,
				Title:       resumed.Entry.Title,
				Language:    resumed.Entry.Language,
				CurrentPage: resumed.Page,
				TotalPages:  totalPages,
			},
			data:     resumed.Document,
			mimeType: resumed.ContentType,
		}
		o.mu.Unlock()
	}

	return resumed, nil
}

// ReattachBlob re-supplies a document for a degraded session and rehydrates
// the transient state so page analysis can continue.
func (o *Orchestrator) ReattachBlob(ctx context.Context, id string, file FileUpload) error {
	if !file.IsPDF() {
		return interfaces.NewValidationError("The re-supplied file must be a PDF.")
	}
	if err := o.ledger.ReattachBlob(ctx, id, file.ContentType, file.Data); err != nil {
		return err
	}
	_, err := o.Resume(ctx, id)
	return err
}

// openPDFSession counts pages, persists the blob, and registers the
// transient session. A blob store failure is logged but does not block the
// analysis flow.
func (o *Orchestrator) openPDFSession(ctx context.Context, title, language string, file *FileUpload) (*session, error) {
	totalPages, err := o.pdf.PageCount(ctx, file.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	sessionID := common.NewSessionID()
	if err := o.ledger.StoreBlob(ctx, sessionID, file.ContentType, file.Data); err != nil {
		o.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to persist document, session will not survive restart")
	}

	sess := &session{
		doc: &models.DocumentSession{
			ID:         sessionID,
			Kind:       models.KindPDF,
			Title:      title,
			Language:   language,
			TotalPages: totalPages,
		},
		data:     file.Data,
		mimeType: file.ContentType,
	}

	o.mu.Lock()
	o.sessions[sessionID] = sess
	o.mu.Unlock()

	o.logger.Info().
		Str("session_id", sessionID).
		Int("total_pages", totalPages).
		Msg("Opened PDF session")

	return sess, nil
}

// resolveSession returns the transient session, falling back to the blob
// store for sessions opened before a restart.
func (o *Orchestrator) resolveSession(ctx context.Context, sessionID string) (*session, error) {
	o.mu.Lock()
	sess, ok := o.sessions[sessionID]
	o.mu.Unlock()
	if ok {
		return sess, nil
	}

	resumed, err := o.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if resumed.NeedsReupload {
		return nil, interfaces.ErrBlobNotFound
	}

	o.mu.Lock()
	sess = o.sessions[sessionID]
	o.mu.Unlock()
	if sess == nil {
		return nil, fmt.Errorf("session %s is not a pdf session", sessionID)
	}
	return sess, nil
}

// dispatchExplain runs one explain call with state and event bookkeeping.
func (o *Orchestrator) dispatchExplain(ctx context.Context, sessionID string, payload interfaces.ContentPayload, language string) (*models.AnalysisResult, error) {
	o.setState(StateAwaitingResponse)
	o.publish(ctx, interfaces.EventAnalysisStarted, map[string]string{"id": sessionID, "module": string(models.ModuleExplain)})

	result, err := o.ai.Explain(ctx, payload, language)
	if err != nil {
		o.publish(ctx, interfaces.EventAnalysisFailed, map[string]string{"id": sessionID, "error": err.Error()})
		return nil, err
	}

	o.publish(ctx, interfaces.EventAnalysisCompleted, map[string]string{"id": sessionID, "module": string(models.ModuleExplain)})
	return result, nil
}

// resolveReferenceText builds the assess reference: pasted text, text
// extracted from a reference PDF, or the general-knowledge sentinel.
func (o *Orchestrator) resolveReferenceText(ctx context.Context, mode ReferenceMode, text string, file *FileUpload) (string, error) {
	switch mode {
	case ReferenceText:
		if strings.TrimSpace(text) == "" {
			return "", interfaces.NewValidationError("Reference text cannot be empty.")
		}
		return text, nil
	case ReferenceFile:
		if file == nil || len(file.Data) == 0 {
			return "", interfaces.NewValidationError("Upload a reference document.")
		}
		if !file.IsPDF() {
			return "", interfaces.NewValidationError("The reference document must be a PDF; paste text for other material.")
		}
		pages, err := o.pdf.ExtractText(ctx, file.Data)
		if err != nil {
			return "", fmt.Errorf("failed to extract reference text: %w", err)
		}
		var sb strings.Builder
		for _, page := range pages {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(page.Text)
		}
		if strings.TrimSpace(sb.String()) == "" {
			return "", interfaces.NewValidationError("No text could be extracted from the reference PDF.")
		}
		return sb.String(), nil
	default:
		return generalKnowledgeReference, nil
	}
}

// resolveReferencePayload builds the vocal reference payload: text or the
// raw uploaded file.
func (o *Orchestrator) resolveReferencePayload(mode ReferenceMode, text string, file *FileUpload) (interfaces.ContentPayload, error) {
	if mode == ReferenceText {
		if strings.TrimSpace(text) == "" {
			return interfaces.ContentPayload{}, interfaces.NewValidationError("Reference text cannot be empty.")
		}
		return interfaces.ContentPayload{Text: text}, nil
	}

	if file == nil || len(file.Data) == 0 {
		return interfaces.ContentPayload{}, interfaces.NewValidationError("Provide reference material before validating.")
	}
	if !file.IsPDF() && !file.IsImage() {
		return interfaces.ContentPayload{}, interfaces.NewValidationError(fmt.Sprintf("Unsupported reference type %q.", file.ContentType))
	}
	return interfaces.ContentPayload{Data: file.Data, MIMEType: file.ContentType}, nil
}

// flattenAnswers converts answer uploads into image payloads, rendering each
// page of PDF uploads.
func (o *Orchestrator) flattenAnswers(ctx context.Context, answers []FileUpload) ([]interfaces.ImagePayload, error) {
	images := make([]interfaces.ImagePayload, 0, len(answers))
	for i := range answers {
		file := &answers[i]
		switch {
		case file.IsImage():
			images = append(images, interfaces.ImagePayload{Data: file.Data, MIMEType: file.ContentType})
		case file.IsPDF():
			totalPages, err := o.pdf.PageCount(ctx, file.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to read answer PDF %s: %w", file.Name, err)
			}
			for page := 1; page <= totalPages; page++ {
				jpeg, err := o.renderer.RenderPage(ctx, file.Data, page)
				if err != nil {
					return nil, fmt.Errorf("failed to render answer page %d of %s: %w", page, file.Name, err)
				}
				images = append(images, interfaces.ImagePayload{Data: jpeg, MIMEType: "image/jpeg"})
			}
		default:
			return nil, interfaces.NewValidationError(fmt.Sprintf("Unsupported answer file type %q.", file.ContentType))
		}
	}
	return images, nil
}

// bumpCounter increments the lifetime analysis counter. Only explain runs
// count.
func (o *Orchestrator) bumpCounter(ctx context.Context) {
	if err := o.profile.IncrementAnalyses(ctx); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to increment analysis counter")
	}
}

func (o *Orchestrator) validateRequest(req interface{}) error {
	if err := o.validate.Struct(req); err != nil {
		return interfaces.NewValidationError(err.Error())
	}
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if o.events == nil {
		return
	}
	o.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload})
}

// titleFromText derives a short title from pasted content.
func titleFromText(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.IndexByte(trimmed, '\n'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	runes := []rune(trimmed)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return trimmed
}
