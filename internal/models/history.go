package models

import "time"

// SessionKind identifies the artifact type of a document session.
type SessionKind string

const (
	KindPDF   SessionKind = "pdf"
	KindImage SessionKind = "image"
	KindText  SessionKind = "text"
)

// AnalysisModule identifies which analysis flow produced a history entry.
type AnalysisModule string

const (
	ModuleExplain AnalysisModule = "explain"
	ModuleAssess  AnalysisModule = "assess"
	ModuleVocal   AnalysisModule = "vocal"
)

// PDFData holds the per-page result cache of a pdf session.
// CompletedPages is kept equal to the sorted, deduplicated key set of
// PageResults.
type PDFData struct {
	PageResults    map[int]*AnalysisResult `json:"pageResults"`
	LastViewedPage int                     `json:"lastViewedPage"`
	TotalPages     int                     `json:"totalPages"`
	CompletedPages []int                   `json:"completedPages"`
}

// HistoryEntry is a persisted record of one session's accumulated results.
type HistoryEntry struct {
	ID        string         `json:"id" badgerhold:"key"`
	Title     string         `json:"title"`
	Kind      SessionKind    `json:"kind"`
	Module    AnalysisModule `json:"module"`
	Language  string         `json:"language"`
	CreatedAt time.Time      `json:"createdAt"`
	Score     *float64       `json:"score,omitempty"`

	// TextInput is retained for text sessions so resume can restore the
	// original pasted content. Image sessions keep only the result.
	TextInput string `json:"textInput,omitempty"`

	Result           *AnalysisResult   `json:"result,omitempty"`
	AssessmentResult *AssessmentResult `json:"assessmentResult,omitempty"`
	VocalResult      *VocalResult      `json:"vocalResult,omitempty"`
	PDFData          *PDFData          `json:"pdfData,omitempty"`
}

// BlobRecord is the binary content of a pdf session, stored separately from
// the JSON-persisted history entries because of size.
type BlobRecord struct {
	ID          string    `json:"id" badgerhold:"key"`
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"createdAt"`
}
