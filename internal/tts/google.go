package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// googleTTSURL is the Cloud Text-to-Speech synthesis endpoint. The API key
// is sent as a query parameter.
const googleTTSURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// GoogleSynthesizer renders speech through Google Cloud Text-to-Speech.
type GoogleSynthesizer struct {
	apiKey     string
	httpClient httpDoer
}

// GoogleOption configures a GoogleSynthesizer.
type GoogleOption func(*GoogleSynthesizer)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) GoogleOption {
	return func(s *GoogleSynthesizer) { s.httpClient = c }
}

// NewGoogleSynthesizer creates a GoogleSynthesizer.
func NewGoogleSynthesizer(apiKey string, opts ...GoogleOption) *GoogleSynthesizer {
	s := &GoogleSynthesizer{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// synthesizeRequest is the Text-to-Speech request body.
type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

// synthesizeResponse carries the base64 MP3 payload.
type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize renders text to MP3 and writes the decoded audio to outPath.
// An empty audioContent in a 200 response is treated as an error so the
// pipeline never writes a zero-byte dub track.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text, outPath string, opts Options) error {
	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = opts.LanguageCode
	reqBody.Voice.Name = opts.Voice
	reqBody.AudioConfig.AudioEncoding = "MP3"

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encode synthesize request: %w", err)
	}

	url := googleTTSURL + "?key=" + s.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("synthesize request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("HTTP %d: %w", resp.StatusCode, ErrAuthFailed)
	default:
		return fmt.Errorf("synthesize: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parse synthesize response: %w", err)
	}
	if parsed.AudioContent == "" {
		return ErrEmptyAudio
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return fmt.Errorf("decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return ErrEmptyAudio
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}
