// -----------------------------------------------------------------------
// Export Service - study-notes PDF of a history entry
// -----------------------------------------------------------------------

package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/models"
)

// Service renders the accumulated results of a history entry as a printable
// study-notes PDF.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// StudyNotes renders the entry as markdown and converts it to PDF.
func (s *Service) StudyNotes(entry *models.HistoryEntry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("cannot export nil entry")
	}

	markdown := buildNotes(entry)
	pdf, err := markdownToPDF(markdown)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("entry_id", entry.ID).
		Int("pdf_bytes", len(pdf)).
		Msg("Exported study notes")

	return pdf, nil
}

// buildNotes assembles the markdown body for one entry.
func buildNotes(entry *models.HistoryEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", entry.Title)
	fmt.Fprintf(&sb, "*%s session, %s*\n\n", entry.Kind, entry.CreatedAt.Format("2 January 2006"))

	switch {
	case entry.PDFData != nil && len(entry.PDFData.PageResults) > 0:
		pages := make([]int, 0, len(entry.PDFData.PageResults))
		for page := range entry.PDFData.PageResults {
			pages = append(pages, page)
		}
		sort.Ints(pages)
		for _, page := range pages {
			fmt.Fprintf(&sb, "## Page %d\n\n", page)
			writeAnalysis(&sb, entry.PDFData.PageResults[page])
		}
	case entry.Result != nil:
		writeAnalysis(&sb, entry.Result)
	case entry.AssessmentResult != nil:
		writeAssessment(&sb, entry.AssessmentResult)
	case entry.VocalResult != nil:
		writeVocal(&sb, entry.VocalResult)
	}

	return sb.String()
}

func writeAnalysis(sb *strings.Builder, result *models.AnalysisResult) {
	fmt.Fprintf(sb, "### Concept\n\n%s\n\n", result.Concept)

	if len(result.Paragraphs) > 0 {
		sb.WriteString("### Sections\n\n")
		for _, p := range result.Paragraphs {
			fmt.Fprintf(sb, "**%s**\n\n%s\n\n", p.OriginalText, p.Explanation)
		}
	}

	if len(result.SubjectExamples) > 0 {
		sb.WriteString("### Examples\n\n")
		for _, e := range result.SubjectExamples {
			fmt.Fprintf(sb, "- **%s** %s\n", e.Text, e.Explanation)
		}
		sb.WriteString("\n")
	}

	if len(result.RealWorldExamples) > 0 {
		sb.WriteString("### In conversation\n\n")
		for _, e := range result.RealWorldExamples {
			fmt.Fprintf(sb, "**%s**\n\n%s\n\n*%s*\n\n", e.Persona, e.Scenario, e.Explanation)
		}
	}

	sb.WriteString("---\n\n")
}

func writeAssessment(sb *strings.Builder, result *models.AssessmentResult) {
	fmt.Fprintf(sb, "### Overall score: %.0f%%\n\n%s\n\n", result.OverallScore, result.GeneralFeedback)

	for _, page := range result.Pages {
		fmt.Fprintf(sb, "### Page %d — %.0f%%\n\n%s\n\n", page.PageNumber, page.Score, page.Summary)
		for _, c := range page.Critique {
			fmt.Fprintf(sb, "- **%s** %s\n", c.WrongPoint, c.Correction)
		}
		sb.WriteString("\n")
	}
}

func writeVocal(sb *strings.Builder, result *models.VocalResult) {
	fmt.Fprintf(sb, "### Correctness: %.0f%%\n\n", result.CorrectnessPercentage)
	fmt.Fprintf(sb, "### Transcription\n\n%s\n\n", result.Transcription)

	if result.ContentFeedback.AccuracyReview != "" {
		fmt.Fprintf(sb, "### Accuracy review\n\n%s\n\n", result.ContentFeedback.AccuracyReview)
	}
	if len(result.ContentFeedback.MissedPoints) > 0 {
		sb.WriteString("### Missed points\n\n")
		for _, p := range result.ContentFeedback.MissedPoints {
			fmt.Fprintf(sb, "- %s\n", p)
		}
		sb.WriteString("\n")
	}
	if len(result.GrammarMistakes) > 0 {
		sb.WriteString("### Language\n\n")
		for _, m := range result.GrammarMistakes {
			fmt.Fprintf(sb, "- **%s** should be **%s**. %s\n", m.Error, m.Correction, m.Explanation)
		}
		sb.WriteString("\n")
	}
	if len(result.EnhancementSuggestions) > 0 {
		sb.WriteString("### Next steps\n\n")
		for _, s := range result.EnhancementSuggestions {
			fmt.Fprintf(sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}
}
