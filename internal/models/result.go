package models

// ParagraphAnalysis explains one block of the analyzed content.
type ParagraphAnalysis struct {
	OriginalText string `json:"originalText"`
	Explanation  string `json:"explanation"`
}

// ExampleWithExplanation is a worked subject example.
type ExampleWithExplanation struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}

// RealWorldExample is a conversational example illustrating the concept.
type RealWorldExample struct {
	Persona     string `json:"persona"`
	Scenario    string `json:"scenario"`
	Explanation string `json:"explanation"`
}

// AnalysisResult is the structured response of an explain request.
type AnalysisResult struct {
	Concept           string                   `json:"concept"`
	Paragraphs        []ParagraphAnalysis      `json:"paragraphs,omitempty"`
	SubjectExamples   []ExampleWithExplanation `json:"subjectExamples"`
	RealWorldExamples []RealWorldExample       `json:"realWorldExamples"`
}

// CritiquePoint names one wrong point on an answer sheet and its correction.
type CritiquePoint struct {
	WrongPoint string `json:"wrongPoint"`
	Correction string `json:"correction"`
}

// AssessmentPageResult scores a single answer-sheet page.
type AssessmentPageResult struct {
	PageNumber int             `json:"pageNumber"`
	Score      float64         `json:"score"`
	Summary    string          `json:"summary"`
	Critique   []CritiquePoint `json:"critique"`
}

// AssessmentResult is the structured response of an assess request.
type AssessmentResult struct {
	OverallScore    float64                `json:"overallScore"`
	GeneralFeedback string                 `json:"generalFeedback"`
	Pages           []AssessmentPageResult `json:"pages"`
}

// GrammarMistake is one linguistic error found in a spoken answer.
type GrammarMistake struct {
	Error       string `json:"error"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

// ContentFeedback reports concept coverage of a spoken answer.
type ContentFeedback struct {
	MissedPoints   []string `json:"missedPoints"`
	AccuracyReview string   `json:"accuracyReview"`
}

// VocalResult is the structured response of a vocal validation request.
// The correctness percentage is bounded by concept coverage: omitting half
// the reference concepts caps the score at 50 regardless of fluency.
type VocalResult struct {
	CorrectnessPercentage  float64          `json:"correctnessPercentage"`
	Transcription          string           `json:"transcription"`
	GrammarMistakes        []GrammarMistake `json:"grammarMistakes,omitempty"`
	ContentFeedback        ContentFeedback  `json:"contentFeedback"`
	EnhancementSuggestions []string         `json:"enhancementSuggestions,omitempty"`
}
