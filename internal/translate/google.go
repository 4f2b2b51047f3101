package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// googleTranslateURL is the Cloud Translation v2 endpoint. The API key is
// sent as a query parameter.
const googleTranslateURL = "https://translation.googleapis.com/language/translate/v2"

// GoogleTranslator translates through the Cloud Translation v2 API.
type GoogleTranslator struct {
	apiKey     string
	httpClient httpDoer
}

// GoogleOption configures a GoogleTranslator.
type GoogleOption func(*GoogleTranslator)

// WithGoogleHTTPClient sets a custom HTTP client (for testing).
func WithGoogleHTTPClient(c httpDoer) GoogleOption {
	return func(t *GoogleTranslator) { t.httpClient = c }
}

// NewGoogleTranslator creates a GoogleTranslator.
func NewGoogleTranslator(apiKey string, opts ...GoogleOption) *GoogleTranslator {
	t := &GoogleTranslator{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// translateResponse is the v2 API response envelope.
type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate sends the text as form data and returns the first translation.
// The v2 API HTML-escapes its output, so entities are decoded before
// returning.
func (t *GoogleTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	form := url.Values{}
	form.Set("q", text)
	form.Set("target", targetLang)
	form.Set("format", "text")
	form.Set("key", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTranslateURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("HTTP %d: %w", resp.StatusCode, ErrAuthFailed)
	default:
		return "", fmt.Errorf("translate: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed translateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse translate response: %w", err)
	}
	if len(parsed.Data.Translations) == 0 {
		return "", ErrEmptyResult
	}
	return html.UnescapeString(parsed.Data.Translations[0].TranslatedText), nil
}
