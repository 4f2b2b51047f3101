// Package translate converts transcript text between languages. Providers
// are interchangeable behind the Translator interface; the mock provider
// keeps the pipeline runnable without credentials.
package translate

import (
	"context"
	"fmt"
	"net/http"
)

// Translator translates text into the target language, an ISO 639-1 base
// code such as "id" or "en".
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance checks.
var (
	_ Translator = (*GoogleTranslator)(nil)
	_ Translator = (*GeminiTranslator)(nil)
	_ Translator = (*MockTranslator)(nil)
)

// MockTranslator tags the input with the target language instead of
// translating it.
type MockTranslator struct{}

// NewMockTranslator creates a MockTranslator.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate returns the text prefixed with the target language tag.
func (m *MockTranslator) Translate(_ context.Context, text, targetLang string) (string, error) {
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}
