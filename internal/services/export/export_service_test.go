package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/models"
)

func analysisResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Concept: "The water cycle moves water between land, sea and air.",
		Paragraphs: []models.ParagraphAnalysis{
			{OriginalText: "Evaporation", Explanation: "Water turns to vapor."},
		},
		SubjectExamples: []models.ExampleWithExplanation{
			{Text: "Puddles disappearing", Explanation: "Sun heats the water."},
		},
		RealWorldExamples: []models.RealWorldExample{
			{Persona: "Chef", Scenario: "Boiling a pot", Explanation: "Steam rising is evaporation."},
		},
	}
}

func TestStudyNotesRejectsNilEntry(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	_, err := svc.StudyNotes(nil)
	assert.Error(t, err)
}

func TestStudyNotesTextEntry(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	pdf, err := svc.StudyNotes(&models.HistoryEntry{
		ID:        "ses_1",
		Title:     "Water Cycle",
		Kind:      models.KindText,
		CreatedAt: time.Now(),
		Result:    analysisResult(),
	})
	require.NoError(t, err)

	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestStudyNotesPDFEntryOrdersPages(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	entry := &models.HistoryEntry{
		ID:        "ses_2",
		Title:     "Lecture",
		Kind:      models.KindPDF,
		CreatedAt: time.Now(),
		PDFData: &models.PDFData{
			PageResults: map[int]*models.AnalysisResult{
				4: analysisResult(),
				1: analysisResult(),
			},
			CompletedPages: []int{1, 4},
		},
	}

	pdf, err := svc.StudyNotes(entry)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestStudyNotesAssessmentEntry(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	entry := &models.HistoryEntry{
		ID:        "ses_3",
		Title:     "Midterm",
		Kind:      models.KindImage,
		CreatedAt: time.Now(),
		AssessmentResult: &models.AssessmentResult{
			OverallScore:    65,
			GeneralFeedback: "Solid grasp of the basics.",
			Pages: []models.AssessmentPageResult{
				{PageNumber: 1, Score: 65, Summary: "Mostly right", Critique: []models.CritiquePoint{
					{WrongPoint: "Mixed up condensation", Correction: "Condensation forms clouds."},
				}},
			},
		},
	}

	pdf, err := svc.StudyNotes(entry)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestStudyNotesVocalEntry(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	entry := &models.HistoryEntry{
		ID:        "ses_4",
		Title:     "Spoken answer",
		Kind:      models.KindText,
		CreatedAt: time.Now(),
		VocalResult: &models.VocalResult{
			CorrectnessPercentage: 45,
			Transcription:         "Water goes up and comes down as rain.",
			ContentFeedback: models.ContentFeedback{
				MissedPoints:   []string{"Condensation", "Collection"},
				AccuracyReview: "Half the stages were covered.",
			},
			EnhancementSuggestions: []string{"Name all four stages in order."},
		},
	}

	pdf, err := svc.StudyNotes(entry)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestBuildNotesContainsSections(t *testing.T) {
	entry := &models.HistoryEntry{
		Title:     "Water Cycle",
		Kind:      models.KindText,
		CreatedAt: time.Now(),
		Result:    analysisResult(),
	}

	markdown := buildNotes(entry)

	assert.Contains(t, markdown, "# Water Cycle")
	assert.Contains(t, markdown, "### Concept")
	assert.Contains(t, markdown, "### Examples")
	assert.Contains(t, markdown, "### In conversation")
}
