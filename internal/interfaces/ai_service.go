package interfaces

import (
	"context"

	"github.com/ternarybob/audile/internal/models"
)

// ContentPayload is a multi-modal payload part: either plain text or inline
// binary data with a mime type. Exactly one of Text or Data is set.
type ContentPayload struct {
	Text     string
	Data     []byte
	MIMEType string
}

// IsText reports whether the payload carries plain text.
func (p ContentPayload) IsText() bool {
	return len(p.Data) == 0
}

// ImagePayload is one inline image for the assess flow.
type ImagePayload struct {
	Data     []byte
	MIMEType string
}

// AIService is the boundary to the external generative-AI collaborator.
// Prompt construction and response schemas are fixed external contracts.
type AIService interface {
	// Explain analyzes the payload and explains it in the given language.
	Explain(ctx context.Context, payload ContentPayload, language string) (*models.AnalysisResult, error)

	// Assess grades answer-sheet images against the reference text.
	Assess(ctx context.Context, images []ImagePayload, referenceText string, language string) (*models.AssessmentResult, error)

	// ValidateVocal performs a gap analysis of a spoken answer (audio/webm)
	// against the reference payload.
	ValidateVocal(ctx context.Context, audio []byte, reference ContentPayload, language string) (*models.VocalResult, error)

	// SynthesizeSpeech returns raw 16-bit mono PCM at the configured sample
	// rate. The caller is responsible for framing.
	SynthesizeSpeech(ctx context.Context, text string, voice models.VoiceID) ([]byte, error)
}
