package ai

import "google.golang.org/genai"

// Response schemas are fixed external contracts: they mirror the result
// structures the clients render and must not drift from the models package.

func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"concept": {Type: genai.TypeString},
			"paragraphs": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"originalText": {Type: genai.TypeString},
						"explanation":  {Type: genai.TypeString},
					},
					Required: []string{"originalText", "explanation"},
				},
			},
			"subjectExamples": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"text":        {Type: genai.TypeString},
						"explanation": {Type: genai.TypeString},
					},
					Required: []string{"text", "explanation"},
				},
			},
			"realWorldExamples": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"persona":     {Type: genai.TypeString},
						"scenario":    {Type: genai.TypeString},
						"explanation": {Type: genai.TypeString},
					},
					Required: []string{"persona", "scenario", "explanation"},
				},
			},
		},
		Required: []string{"concept", "subjectExamples", "realWorldExamples"},
	}
}

func assessmentSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallScore":    {Type: genai.TypeNumber},
			"generalFeedback": {Type: genai.TypeString},
			"pages": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"pageNumber": {Type: genai.TypeInteger},
						"score":      {Type: genai.TypeNumber},
						"summary":    {Type: genai.TypeString},
						"critique": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"wrongPoint": {Type: genai.TypeString},
									"correction": {Type: genai.TypeString},
								},
								Required: []string{"wrongPoint", "correction"},
							},
						},
					},
					Required: []string{"pageNumber", "score", "critique", "summary"},
				},
			},
		},
		Required: []string{"overallScore", "pages", "generalFeedback"},
	}
}

func vocalSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"correctnessPercentage": {Type: genai.TypeNumber},
			"transcription":         {Type: genai.TypeString},
			"grammarMistakes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"error":       {Type: genai.TypeString},
						"correction":  {Type: genai.TypeString},
						"explanation": {Type: genai.TypeString},
					},
				},
			},
			"contentFeedback": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"missedPoints":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"accuracyReview": {Type: genai.TypeString},
				},
			},
			"enhancementSuggestions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"correctnessPercentage", "transcription", "contentFeedback"},
	}
}
