package translate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiModel is the default Gemini translation model.
const geminiModel = "gemini-2.0-flash"

// languageNames expands base codes for the translation prompt. Unknown
// codes pass through unchanged.
var languageNames = map[string]string{
	"id": "Indonesian",
	"en": "English",
	"ja": "Japanese",
	"ko": "Korean",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
	"pt": "Portuguese",
	"zh": "Chinese",
}

// contentGenerator is the slice of the genai client used here, extracted
// for testing.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiTranslator translates through the Gemini API with a fixed
// translator system prompt.
type GeminiTranslator struct {
	models contentGenerator
	model  string
}

// GeminiOption configures a GeminiTranslator.
type GeminiOption func(*GeminiTranslator)

// WithGeminiModel overrides the default model.
func WithGeminiModel(model string) GeminiOption {
	return func(t *GeminiTranslator) {
		if model != "" {
			t.model = model
		}
	}
}

// WithContentGenerator sets a custom generation backend (for testing).
func WithContentGenerator(g contentGenerator) GeminiOption {
	return func(t *GeminiTranslator) { t.models = g }
}

// NewGeminiTranslator creates a GeminiTranslator backed by a new genai
// client.
func NewGeminiTranslator(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiTranslator, error) {
	t := &GeminiTranslator{model: geminiModel}
	for _, opt := range opts {
		opt(t)
	}
	if t.models == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		t.models = client.Models
	}
	return t, nil
}

// Translate asks the model to translate and returns the concatenated
// candidate text.
func (t *GeminiTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	langName := targetLang
	if name, ok := languageNames[targetLang]; ok {
		langName = name
	}
	system := fmt.Sprintf(
		"You are a professional translator. Translate the following text to %s. Only output the translation, no explanations.",
		langName)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	resp, err := t.models.GenerateContent(ctx, t.model, genai.Text(text), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini translate: %w", err)
	}

	out := collectText(resp)
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResult
	}
	return strings.TrimSpace(out), nil
}

// collectText concatenates the text parts of every candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
