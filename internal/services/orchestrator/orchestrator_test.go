package orchestrator

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
	"github.com/ternarybob/audile/internal/services/ledger"
	"github.com/ternarybob/audile/internal/services/profile"
)

// ---- in-memory storage fakes ----

type memHistory struct {
	mu      sync.Mutex
	entries map[string]*models.HistoryEntry
}

func newMemHistory() *memHistory {
	return &memHistory{entries: make(map[string]*models.HistoryEntry)}
}

func (m *memHistory) Upsert(ctx context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *memHistory) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, interfaces.ErrEntryNotFound
	}
	return entry, nil
}

func (m *memHistory) List(ctx context.Context) ([]*models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memHistory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string]*models.BlobRecord
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string]*models.BlobRecord)}
}

func (m *memBlobs) Put(ctx context.Context, id string, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = &models.BlobRecord{ID: id, ContentType: contentType, Data: data, CreatedAt: time.Now()}
	return nil
}

func (m *memBlobs) Get(ctx context.Context, id string) (*models.BlobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[id]
	if !ok {
		return nil, interfaces.ErrBlobNotFound
	}
	return blob, nil
}

func (m *memBlobs) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

type memProfile struct {
	mu      sync.Mutex
	profile *models.UserProfile
}

func (m *memProfile) Get(ctx context.Context) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		m.profile = models.NewDefaultProfile()
	}
	return m.profile, nil
}

func (m *memProfile) Save(ctx context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
	return nil
}

// ---- service fakes ----

type fakeAI struct {
	mu           sync.Mutex
	explainCalls int
	assessCalls  int
	vocalCalls   int
	explainErr   error
}

func (f *fakeAI) Explain(ctx context.Context, payload interfaces.ContentPayload, language string) (*models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explainCalls++
	if f.explainErr != nil {
		return nil, f.explainErr
	}
	return &models.AnalysisResult{Concept: "concept"}, nil
}

func (f *fakeAI) Assess(ctx context.Context, images []interfaces.ImagePayload, referenceText string, language string) (*models.AssessmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessCalls++
	return &models.AssessmentResult{OverallScore: 80}, nil
}

func (f *fakeAI) ValidateVocal(ctx context.Context, audio []byte, reference interfaces.ContentPayload, language string) (*models.VocalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vocalCalls++
	return &models.VocalResult{CorrectnessPercentage: 60}, nil
}

func (f *fakeAI) SynthesizeSpeech(ctx context.Context, text string, voice models.VoiceID) ([]byte, error) {
	return nil, errors.New("not implemented")
}

type fakePDF struct {
	pages int
	text  string
}

func (f *fakePDF) PageCount(ctx context.Context, pdf []byte) (int, error) {
	return f.pages, nil
}

func (f *fakePDF) ExtractPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	return pdf, nil
}

func (f *fakePDF) ExtractText(ctx context.Context, pdf []byte) ([]interfaces.PDFPageContent, error) {
	return []interfaces.PDFPageContent{{PageNumber: 1, Text: f.text}}, nil
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRenderer) RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []byte("jpeg"), nil
}

type testHarness struct {
	orchestrator *Orchestrator
	ai           *fakeAI
	renderer     *fakeRenderer
	profiles     *memProfile
	history      *memHistory
}

func newHarness(t *testing.T, pages int) *testHarness {
	t.Helper()
	logger := arbor.NewLogger()
	history := newMemHistory()
	blobs := newMemBlobs()
	profiles := &memProfile{}

	ai := &fakeAI{}
	renderer := &fakeRenderer{}
	ledgerService := ledger.NewService(history, blobs, logger)
	profileService := profile.NewService(profiles, logger)

	orch := NewOrchestrator(ai, &fakePDF{pages: pages, text: "reference"}, renderer, ledgerService, profileService, nil, logger)
	return &testHarness{orchestrator: orch, ai: ai, renderer: renderer, profiles: profiles, history: history}
}

func (h *testHarness) totalAnalyses(t *testing.T) int {
	t.Helper()
	p, err := h.profiles.Get(context.Background())
	require.NoError(t, err)
	return p.TotalAnalyses
}

func pdfUpload() *FileUpload {
	return &FileUpload{Name: "lecture.pdf", ContentType: "application/pdf", Data: []byte("%PDF fake")}
}

func imageUpload() FileUpload {
	return FileUpload{Name: "sheet.jpg", ContentType: "image/jpeg", Data: []byte("jpg")}
}

// ---- explain ----

func TestExplainRequiresLanguage(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.orchestrator.Explain(context.Background(), ExplainRequest{Text: "some content"})

	assert.True(t, interfaces.IsValidationError(err))
	assert.Equal(t, 0, h.ai.explainCalls, "validation failures must not reach the AI")
}

func TestExplainRequiresInput(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.orchestrator.Explain(context.Background(), ExplainRequest{Language: "English"})

	assert.True(t, interfaces.IsValidationError(err))
	assert.Equal(t, StateFailed, h.orchestrator.State())
}

func TestExplainTextRecordsEntryAndCounter(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.orchestrator.Explain(context.Background(), ExplainRequest{Text: "Photosynthesis basics", Language: "English"})
	require.NoError(t, err)

	assert.Equal(t, models.KindText, resp.Kind)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Result)

	entry, err := h.history.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis basics", entry.TextInput)
	assert.Equal(t, "Photosynthesis basics", entry.Title)

	assert.Equal(t, 1, h.totalAnalyses(t))
	assert.Equal(t, StateSucceeded, h.orchestrator.State())
}

func TestExplainRejectsUnsupportedUpload(t *testing.T) {
	h := newHarness(t, 0)

	file := &FileUpload{Name: "notes.docx", ContentType: "application/msword", Data: []byte("doc")}
	_, err := h.orchestrator.Explain(context.Background(), ExplainRequest{File: file, Language: "English"})

	assert.True(t, interfaces.IsValidationError(err))
	assert.Equal(t, 0, h.ai.explainCalls)
}

func TestExplainPDFOpensSessionAtPageOne(t *testing.T) {
	h := newHarness(t, 5)

	resp, err := h.orchestrator.Explain(context.Background(), ExplainRequest{File: pdfUpload(), Language: "English"})
	require.NoError(t, err)

	assert.Equal(t, models.KindPDF, resp.Kind)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 5, resp.TotalPages)
	assert.Equal(t, 1, h.renderer.calls)
	assert.Equal(t, 1, h.totalAnalyses(t))
}

func TestExplainSessionPageServesCache(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()

	first, err := h.orchestrator.Explain(ctx, ExplainRequest{File: pdfUpload(), Language: "English"})
	require.NoError(t, err)

	again, err := h.orchestrator.Explain(ctx, ExplainRequest{SessionID: first.SessionID, Page: 1, Language: "English"})
	require.NoError(t, err)

	assert.True(t, again.Cached)
	assert.Equal(t, 1, h.ai.explainCalls, "cache hits must not dispatch")
	assert.Equal(t, 1, h.totalAnalyses(t), "cache hits must not bump the counter")
}

func TestExplainForceBypassesCache(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()

	first, err := h.orchestrator.Explain(ctx, ExplainRequest{File: pdfUpload(), Language: "English"})
	require.NoError(t, err)

	again, err := h.orchestrator.Explain(ctx, ExplainRequest{SessionID: first.SessionID, Page: 1, Language: "English", Force: true})
	require.NoError(t, err)

	assert.False(t, again.Cached)
	assert.Equal(t, 2, h.ai.explainCalls)
	assert.Equal(t, 2, h.totalAnalyses(t))
}

func TestExplainPagePastEndFails(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	first, err := h.orchestrator.Explain(ctx, ExplainRequest{File: pdfUpload(), Language: "English"})
	require.NoError(t, err)

	_, err = h.orchestrator.Explain(ctx, ExplainRequest{SessionID: first.SessionID, Page: 7, Language: "English"})
	assert.True(t, interfaces.IsValidationError(err))
}

func TestExplainAccumulatesPages(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()

	first, err := h.orchestrator.Explain(ctx, ExplainRequest{File: pdfUpload(), Language: "English"})
	require.NoError(t, err)

	for _, page := range []int{3, 2} {
		_, err = h.orchestrator.Explain(ctx, ExplainRequest{SessionID: first.SessionID, Page: page, Language: "English"})
		require.NoError(t, err)
	}

	entry, err := h.history.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, entry.PDFData.CompletedPages)
	assert.Equal(t, 2, entry.PDFData.LastViewedPage)
	assert.Equal(t, 3, h.totalAnalyses(t))
}

func TestExplainFailureDoesNotWedgeSlot(t *testing.T) {
	h := newHarness(t, 0)
	h.ai.explainErr = errors.New("model unavailable")

	_, err := h.orchestrator.Explain(context.Background(), ExplainRequest{Text: "content", Language: "English"})
	require.Error(t, err)
	assert.Equal(t, StateFailed, h.orchestrator.State())

	// The slot must be free for the next request.
	h.ai.explainErr = nil
	_, err = h.orchestrator.Explain(context.Background(), ExplainRequest{Text: "content", Language: "English"})
	assert.NoError(t, err)
}

// ---- assess ----

func TestAssessRequiresAnswers(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.orchestrator.Assess(context.Background(), AssessRequest{Mode: ReferenceNone, Language: "English"})

	assert.True(t, interfaces.IsValidationError(err))
	assert.Equal(t, 0, h.ai.assessCalls)
}

func TestAssessRejectsEmptyReferenceText(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.orchestrator.Assess(context.Background(), AssessRequest{
		Answers:  []FileUpload{imageUpload()},
		Mode:     ReferenceText,
		Language: "English",
	})

	assert.True(t, interfaces.IsValidationError(err))
	assert.Equal(t, 0, h.ai.assessCalls)
}

func TestAssessRecordsEntryWithoutCounter(t *testing.T) {
	h := newHarness(t, 0)

	entry, err := h.orchestrator.Assess(context.Background(), AssessRequest{
		Answers:  []FileUpload{imageUpload()},
		Mode:     ReferenceNone,
		Language: "English",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ModuleAssess, entry.Module)
	require.NotNil(t, entry.Score)
	assert.Equal(t, 80.0, *entry.Score)

	// Only explain runs count toward the lifetime counter.
	assert.Equal(t, 0, h.totalAnalyses(t))
}

func TestAssessFlattensPDFAnswers(t *testing.T) {
	h := newHarness(t, 3)

	_, err := h.orchestrator.Assess(context.Background(), AssessRequest{
		Answers:  []FileUpload{*pdfUpload()},
		Mode:     ReferenceNone,
		Language: "English",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, h.renderer.calls, "each pdf page becomes one image")
}

// ---- vocal ----

func TestVocalRequiresAudio(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.orchestrator.ValidateVocal(context.Background(), VocalRequest{
		Mode:          ReferenceText,
		ReferenceText: "reference",
		Language:      "English",
	})

	assert.True(t, interfaces.IsValidationError(err))
	assert.Equal(t, 0, h.ai.vocalCalls)
}

func TestVocalRejectsNoneMode(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.orchestrator.ValidateVocal(context.Background(), VocalRequest{
		Audio:    []byte("webm"),
		Mode:     ReferenceNone,
		Language: "English",
	})

	assert.True(t, interfaces.IsValidationError(err))
}

func TestVocalRecordsEntry(t *testing.T) {
	h := newHarness(t, 0)

	entry, err := h.orchestrator.ValidateVocal(context.Background(), VocalRequest{
		Audio:         []byte("webm"),
		Mode:          ReferenceText,
		ReferenceText: "the water cycle",
		Language:      "English",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ModuleVocal, entry.Module)
	require.NotNil(t, entry.Score)
	assert.Equal(t, 60.0, *entry.Score)
	assert.Equal(t, 0, h.totalAnalyses(t))
}

// ---- resume / reattach ----

func TestResumeRehydratesSession(t *testing.T) {
	h := newHarness(t, 4)
	ctx := context.Background()

	first, err := h.orchestrator.Explain(ctx, ExplainRequest{File: pdfUpload(), Language: "English"})
	require.NoError(t, err)

	// A fresh orchestrator simulates a restart; the blob store survives.
	resumed, err := h.orchestrator.Resume(ctx, first.SessionID)
	require.NoError(t, err)
	assert.False(t, resumed.NeedsReupload)

	jpeg, err := h.orchestrator.PageImage(ctx, first.SessionID, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, jpeg)
}

func TestReattachBlobRequiresPDF(t *testing.T) {
	h := newHarness(t, 0)

	err := h.orchestrator.ReattachBlob(context.Background(), "any", imageUpload())
	assert.True(t, interfaces.IsValidationError(err))
}

// ---- helpers ----

func TestTitleFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "short single line", text: "The water cycle", want: "The water cycle"},
		{name: "first line only", text: "Heading\nbody text follows", want: "Heading"},
		{name: "whitespace trimmed", text: "  padded  ", want: "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFromText(tt.text))
		})
	}
}

func TestTitleFromTextTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	got := titleFromText(long)
	assert.Len(t, []rune(got), 61) // 60 runes plus the ellipsis
}
