// -----------------------------------------------------------------------
// History Ledger - the page-indexed result cache behind sessions
// -----------------------------------------------------------------------

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
)

// ResumedSession is what a history entry yields when reopened. For pdf
// sessions whose blob is gone, NeedsReupload is set and Document is nil;
// metadata and cached results are still served.
type ResumedSession struct {
	Entry         *models.HistoryEntry
	Document      []byte
	ContentType   string
	Page          int
	PageResult    *models.AnalysisResult
	NeedsReupload bool
}

// Service owns the result cache and history ordering. All pdf mutations are
// read-modify-write against storage so concurrent merges never work from a
// stale snapshot.
type Service struct {
	history interfaces.HistoryStorage
	blobs   interfaces.BlobStorage
	logger  arbor.ILogger
}

// NewService creates a new ledger service
func NewService(history interfaces.HistoryStorage, blobs interfaces.BlobStorage, logger arbor.ILogger) *Service {
	return &Service{
		history: history,
		blobs:   blobs,
		logger:  logger,
	}
}

// RecordResult records a completed explain analysis. Non-pdf sessions always
// produce a new entry. Pdf sessions merge into the existing entry for the
// session id, last write wins per page.
func (s *Service) RecordResult(ctx context.Context, sessionID string, kind models.SessionKind, title, language, textInput string, page, totalPages int, result *models.AnalysisResult) (*models.HistoryEntry, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot record nil result")
	}

	if kind != models.KindPDF {
		entry := &models.HistoryEntry{
			ID:        sessionID,
			Title:     title,
			Kind:      kind,
			Module:    models.ModuleExplain,
			Language:  language,
			CreatedAt: time.Now(),
			TextInput: textInput,
			Result:    result,
		}
		if err := s.history.Upsert(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record result: %w", err)
		}
		s.logger.Info().
			Str("entry_id", entry.ID).
			Str("kind", string(kind)).
			Msg("Recorded analysis result")
		return entry, nil
	}

	entry, err := s.history.Get(ctx, sessionID)
	if errors.Is(err, interfaces.ErrEntryNotFound) {
		entry = &models.HistoryEntry{
			ID:        sessionID,
			Title:     title,
			Kind:      models.KindPDF,
			Module:    models.ModuleExplain,
			Language:  language,
			CreatedAt: time.Now(),
			PDFData: &models.PDFData{
				PageResults: make(map[int]*models.AnalysisResult),
			},
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load entry for merge: %w", err)
	}

	if entry.PDFData == nil {
		entry.PDFData = &models.PDFData{PageResults: make(map[int]*models.AnalysisResult)}
	}
	if entry.PDFData.PageResults == nil {
		entry.PDFData.PageResults = make(map[int]*models.AnalysisResult)
	}

	entry.PDFData.PageResults[page] = result
	entry.PDFData.LastViewedPage = page
	if totalPages > 0 {
		entry.PDFData.TotalPages = totalPages
	}
	entry.PDFData.CompletedPages = completedPages(entry.PDFData.PageResults)

	if err := s.history.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record page result: %w", err)
	}

	s.logger.Info().
		Str("entry_id", entry.ID).
		Int("page", page).
		Int("completed_pages", len(entry.PDFData.CompletedPages)).
		Msg("Recorded page result")

	return entry, nil
}

// RecordAssessment records a completed assessment run as a new entry.
func (s *Service) RecordAssessment(ctx context.Context, sessionID, title, language string, result *models.AssessmentResult) (*models.HistoryEntry, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot record nil assessment")
	}

	score := result.OverallScore
	entry := &models.HistoryEntry{
		ID:               sessionID,
		Title:            title,
		Kind:             models.KindImage,
		Module:           models.ModuleAssess,
		Language:         language,
		CreatedAt:        time.Now(),
		Score:            &score,
		AssessmentResult: result,
	}
	if err := s.history.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record assessment: %w", err)
	}

	s.logger.Info().
		Str("entry_id", entry.ID).
		Float64("score", score).
		Msg("Recorded assessment")

	return entry, nil
}

// RecordVocal records a completed vocal validation run as a new entry.
func (s *Service) RecordVocal(ctx context.Context, sessionID, title, language string, result *models.VocalResult) (*models.HistoryEntry, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot record nil vocal result")
	}

	score := result.CorrectnessPercentage
	entry := &models.HistoryEntry{
		ID:          sessionID,
		Title:       title,
		Kind:        models.KindText,
		Module:      models.ModuleVocal,
		Language:    language,
		CreatedAt:   time.Now(),
		Score:       &score,
		VocalResult: result,
	}
	if err := s.history.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record vocal result: %w", err)
	}

	s.logger.Info().
		Str("entry_id", entry.ID).
		Float64("correctness", score).
		Msg("Recorded vocal validation")

	return entry, nil
}

// LookupPageResult returns the cached result for a page, or nil when the page
// has not been analyzed.
func (s *Service) LookupPageResult(entry *models.HistoryEntry, page int) *models.AnalysisResult {
	if entry == nil || entry.PDFData == nil || entry.PDFData.PageResults == nil {
		return nil
	}
	return entry.PDFData.PageResults[page]
}

// Resume reopens a history entry. For pdf entries the stored blob is
// fetched; when absent the session resumes degraded and the caller must
// re-supply the file before new pages can be analyzed.
func (s *Service) Resume(ctx context.Context, id string) (*ResumedSession, error) {
	entry, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resumed := &ResumedSession{Entry: entry}

	if entry.Kind != models.KindPDF {
		return resumed, nil
	}

	if entry.PDFData != nil {
		resumed.Page = entry.PDFData.LastViewedPage
		resumed.PageResult = s.LookupPageResult(entry, resumed.Page)
	}

	blob, err := s.blobs.Get(ctx, id)
	if errors.Is(err, interfaces.ErrBlobNotFound) {
		resumed.NeedsReupload = true
		s.logger.Warn().
			Str("entry_id", id).
			Msg("Session blob missing, resuming degraded")
		return resumed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session blob: %w", err)
	}

	resumed.Document = blob.Data
	resumed.ContentType = blob.ContentType
	return resumed, nil
}

// StoreBlob persists the document for a session. Used when a session opens,
// before its first history entry exists.
func (s *Service) StoreBlob(ctx context.Context, id string, contentType string, data []byte) error {
	return s.blobs.Put(ctx, id, contentType, data)
}

// ReattachBlob re-supplies the original document for an existing entry so
// later page merges keep landing in the same entry.
func (s *Service) ReattachBlob(ctx context.Context, id string, contentType string, data []byte) error {
	if _, err := s.history.Get(ctx, id); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("cannot reattach empty document")
	}
	if err := s.blobs.Put(ctx, id, contentType, data); err != nil {
		return fmt.Errorf("failed to reattach blob: %w", err)
	}

	s.logger.Info().
		Str("entry_id", id).
		Int("bytes", len(data)).
		Msg("Reattached session document")

	return nil
}

// SetLastViewedPage records page navigation on a pdf entry.
func (s *Service) SetLastViewedPage(ctx context.Context, id string, page int) error {
	entry, err := s.history.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry.PDFData == nil {
		return fmt.Errorf("entry %s has no page data", id)
	}

	entry.PDFData.LastViewedPage = page
	return s.history.Upsert(ctx, entry)
}

// List returns all history entries, most recent first.
func (s *Service) List(ctx context.Context) ([]*models.HistoryEntry, error) {
	return s.history.List(ctx)
}

// Get returns one history entry by id.
func (s *Service) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	return s.history.Get(ctx, id)
}

// Delete removes an entry and any stored blob for it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.history.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("entry_id", id).Msg("Failed to delete session blob")
	}
	return nil
}

// completedPages derives the sorted, deduplicated completed page list from
// the page result keys.
func completedPages(results map[int]*models.AnalysisResult) []int {
	pages := make([]int, 0, len(results))
	for page := range results {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}
