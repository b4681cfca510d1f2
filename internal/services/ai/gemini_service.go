package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/common"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/models"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the AIService interface against the Gemini API.
// The three analysis operations request strict JSON via response schemas;
// speech synthesis returns raw PCM at 24 kHz.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
	retry   *RetryConfig
}

// Compile-time assertion
var _ interfaces.AIService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini AI service instance.
func NewGeminiService(config *common.Config, logger arbor.ILogger) (*GeminiService, error) {
	if config.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for AI service (set AUDILE_GEMINI_API_KEY or gemini.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Gemini.Timeout, err)
	}

	rateInterval, err := time.ParseDuration(config.Gemini.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.Gemini.RateLimit, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  &config.Gemini,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(rateInterval), 1),
		retry:   NewDefaultRetryConfig(),
	}

	logger.Info().
		Str("explain_model", config.Gemini.ExplainModel).
		Str("assess_model", config.Gemini.AssessModel).
		Str("speech_model", config.Gemini.SpeechModel).
		Dur("timeout", timeout).
		Msg("Gemini AI service initialized")

	return service, nil
}

// Explain analyzes the payload and explains it in the given language.
func (s *GeminiService) Explain(ctx context.Context, payload interfaces.ContentPayload, language string) (*models.AnalysisResult, error) {
	parts := []*genai.Part{genai.NewPartFromText(explainPrompt(language))}
	if payload.IsText() {
		parts = append(parts, genai.NewPartFromText("Content: "+payload.Text))
	} else {
		parts = append(parts, genai.NewPartFromBytes(payload.Data, payload.MIMEType))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var result models.AnalysisResult
	if err := s.generateJSON(ctx, s.config.ExplainModel, contents, analysisSchema(), &result); err != nil {
		return nil, fmt.Errorf("explain request failed: %w", err)
	}

	s.logger.Info().
		Str("language", language).
		Int("subject_examples", len(result.SubjectExamples)).
		Int("paragraphs", len(result.Paragraphs)).
		Msg("Explain completed")

	return &result, nil
}

// Assess grades answer-sheet images against the reference text.
func (s *GeminiService) Assess(ctx context.Context, images []interfaces.ImagePayload, referenceText string, language string) (*models.AssessmentResult, error) {
	contents := make([]*genai.Content, 0, len(images)+1)
	contents = append(contents, genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromText(assessPrompt(referenceText, language))}, genai.RoleUser))

	for i, img := range images {
		contents = append(contents, genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf("Page %d of answer sheet.", i+1)),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser))
	}

	var result models.AssessmentResult
	if err := s.generateJSON(ctx, s.config.AssessModel, contents, assessmentSchema(), &result); err != nil {
		return nil, fmt.Errorf("assess request failed: %w", err)
	}

	s.logger.Info().
		Str("language", language).
		Int("pages", len(result.Pages)).
		Float64("overall_score", result.OverallScore).
		Msg("Assessment completed")

	return &result, nil
}

// ValidateVocal performs a gap analysis of a spoken answer against the
// reference payload.
func (s *GeminiService) ValidateVocal(ctx context.Context, audio []byte, reference interfaces.ContentPayload, language string) (*models.VocalResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(vocalPrompt(reference.IsText(), language)),
		genai.NewPartFromBytes(audio, "audio/webm"),
	}
	if reference.IsText() {
		parts = append(parts, genai.NewPartFromText("Reference Content: "+reference.Text))
	} else {
		parts = append(parts, genai.NewPartFromBytes(reference.Data, reference.MIMEType))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var result models.VocalResult
	if err := s.generateJSON(ctx, s.config.ExplainModel, contents, vocalSchema(), &result); err != nil {
		return nil, fmt.Errorf("vocal validation request failed: %w", err)
	}

	s.logger.Info().
		Str("language", language).
		Float64("correctness", result.CorrectnessPercentage).
		Int("missed_points", len(result.ContentFeedback.MissedPoints)).
		Msg("Vocal validation completed")

	return &result, nil
}

// SynthesizeSpeech returns raw 16-bit mono PCM for the given text.
func (s *GeminiService) SynthesizeSpeech(ctx context.Context, text string, voice models.VoiceID) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for speech synthesis")
	}
	if !models.KnownVoice(voice) {
		voice = models.DefaultVoice
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: string(voice)},
			},
		},
	}

	contents := []*genai.Content{genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromText(text)}, genai.RoleUser)}

	resp, err := s.generate(ctx, s.config.SpeechModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				s.logger.Debug().
					Str("voice", string(voice)).
					Int("pcm_bytes", len(part.InlineData.Data)).
					Msg("Speech synthesized")
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("no audio content returned from speech model")
}

// generateJSON runs a schema-constrained generation and unmarshals the JSON
// response into out.
func (s *GeminiService) generateJSON(ctx context.Context, model string, contents []*genai.Content, schema *genai.Schema, out interface{}) error {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(s.config.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := s.generate(ctx, model, contents, config)
	if err != nil {
		return err
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		if text.Len() > 0 {
			break
		}
	}

	if text.Len() == 0 {
		return fmt.Errorf("no response generated from model %s", model)
	}

	if err := json.Unmarshal([]byte(text.String()), out); err != nil {
		return fmt.Errorf("malformed response from model %s: %w", model, err)
	}

	return nil
}

// generate dispatches one GenerateContent call with rate limiting and
// rate-limit retry.
func (s *GeminiService) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		start := time.Now()
		resp, err := s.client.Models.GenerateContent(timeoutCtx, model, contents, config)
		if err == nil {
			s.logger.Debug().
				Str("model", model).
				Int("attempt", attempt).
				Dur("duration", time.Since(start)).
				Msg("Generation completed")
			return resp, nil
		}

		lastErr = err
		if !IsRateLimitError(err) || attempt == s.retry.MaxRetries {
			return nil, err
		}

		backoff := s.retry.CalculateBackoff(attempt, ExtractRetryDelay(err))
		s.logger.Warn().
			Str("model", model).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Rate limited, backing off")

		select {
		case <-timeoutCtx.Done():
			return nil, timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}
