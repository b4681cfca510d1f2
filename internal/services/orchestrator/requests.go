package orchestrator

import (
	"strings"

	"github.com/ternarybob/audile/internal/models"
)

// FileUpload is one uploaded document or image.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsPDF reports whether the upload is a PDF document.
func (f *FileUpload) IsPDF() bool {
	return f.ContentType == "application/pdf"
}

// IsImage reports whether the upload is an image.
func (f *FileUpload) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

// ExplainRequest asks for an explanation of text, an uploaded file, or one
// page of an open pdf session.
type ExplainRequest struct {
	// SessionID continues an existing pdf session. Empty for new input.
	SessionID string

	// Page is the 1-indexed page of a pdf session.
	Page int

	// Text is the pasted content for text sessions.
	Text string

	// File is a new upload. Only the first selected file is honored.
	File *FileUpload

	Title    string
	Language string `validate:"required"`

	// Force re-dispatches even when the page already has a cached result.
	Force bool
}

// ExplainResponse carries the analysis plus the session bookkeeping the
// caller needs to keep navigating.
type ExplainResponse struct {
	SessionID  string                 `json:"sessionId"`
	Kind       models.SessionKind     `json:"kind"`
	Page       int                    `json:"page,omitempty"`
	TotalPages int                    `json:"totalPages,omitempty"`
	Cached     bool                   `json:"cached"`
	Result     *models.AnalysisResult `json:"result"`
}

// ReferenceMode selects how the assess/vocal reference is supplied.
type ReferenceMode string

const (
	ReferenceText ReferenceMode = "text"
	ReferenceFile ReferenceMode = "file"
	ReferenceNone ReferenceMode = "none"
)

// generalKnowledgeReference is the sentinel reference used when the caller
// declines to supply subject matter.
const generalKnowledgeReference = "General subject knowledge"

// AssessRequest grades one or more answer sheets against a reference.
type AssessRequest struct {
	// Answers are the uploaded answer sheets; images pass through, PDFs are
	// flattened to one image per page.
	Answers []FileUpload

	Mode          ReferenceMode `validate:"required,oneof=text file none"`
	ReferenceText string
	ReferenceFile *FileUpload

	Title    string
	Language string `validate:"required"`
}

// VocalRequest validates a spoken answer against a reference.
type VocalRequest struct {
	// Audio is the recorded clip (audio/webm).
	Audio []byte

	Mode          ReferenceMode `validate:"required,oneof=text file"`
	ReferenceText string
	ReferenceFile *FileUpload

	Title    string
	Language string `validate:"required"`
}
