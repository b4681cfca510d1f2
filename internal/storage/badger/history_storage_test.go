package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestHistoryUpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())
	ctx := context.Background()

	entry := &models.HistoryEntry{
		ID:        "ses_1",
		Title:     "Water Cycle",
		Kind:      models.KindText,
		Module:    models.ModuleExplain,
		Language:  "English",
		CreatedAt: time.Now(),
		Result:    &models.AnalysisResult{Concept: "evaporation"},
	}
	require.NoError(t, storage.Upsert(ctx, entry))

	got, err := storage.Get(ctx, "ses_1")
	require.NoError(t, err)
	assert.Equal(t, "Water Cycle", got.Title)
	assert.Equal(t, "evaporation", got.Result.Concept)
}

func TestHistoryUpsertReplaces(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())
	ctx := context.Background()

	entry := &models.HistoryEntry{ID: "ses_1", Title: "First", Kind: models.KindText, CreatedAt: time.Now()}
	require.NoError(t, storage.Upsert(ctx, entry))

	entry.Title = "Second"
	require.NoError(t, storage.Upsert(ctx, entry))

	got, err := storage.Get(ctx, "ses_1")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)

	entries, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistoryUpsertRequiresID(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())

	err := storage.Upsert(context.Background(), &models.HistoryEntry{})
	assert.Error(t, err)
}

func TestHistoryGetMissing(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())

	_, err := storage.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrEntryNotFound)
}

func TestHistoryListMostRecentFirst(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"ses_old", "ses_mid", "ses_new"} {
		entry := &models.HistoryEntry{
			ID:        id,
			Title:     id,
			Kind:      models.KindText,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, storage.Upsert(ctx, entry))
	}

	entries, err := storage.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "ses_new", entries[0].ID)
	assert.Equal(t, "ses_old", entries[2].ID)
}

func TestHistoryDeleteMissingIsNoError(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())

	assert.NoError(t, storage.Delete(context.Background(), "missing"))
}

func TestHistoryPDFDataRoundTrip(t *testing.T) {
	db := openTestDB(t)
	storage := NewHistoryStorage(db, arbor.NewLogger())
	ctx := context.Background()

	entry := &models.HistoryEntry{
		ID:        "ses_pdf",
		Title:     "Lecture",
		Kind:      models.KindPDF,
		CreatedAt: time.Now(),
		PDFData: &models.PDFData{
			PageResults: map[int]*models.AnalysisResult{
				1: {Concept: "one"},
				4: {Concept: "four"},
			},
			LastViewedPage: 4,
			TotalPages:     9,
			CompletedPages: []int{1, 4},
		},
	}
	require.NoError(t, storage.Upsert(ctx, entry))

	got, err := storage.Get(ctx, "ses_pdf")
	require.NoError(t, err)
	require.NotNil(t, got.PDFData)
	assert.Equal(t, []int{1, 4}, got.PDFData.CompletedPages)
	assert.Equal(t, "four", got.PDFData.PageResults[4].Concept)
	assert.Equal(t, 9, got.PDFData.TotalPages)
}
