package asr

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

// googleSpeechURL is the Cloud Speech-to-Text synchronous recognition
// endpoint. The API key is appended as a query parameter.
const googleSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleTranscriber transcribes audio through Google Cloud Speech-to-Text.
// Input must be mono 16 kHz LINEAR16 WAV; the media package's ConvertForASR
// produces that format.
type GoogleTranscriber struct {
	apiKey     string
	httpClient httpDoer
}

// GoogleOption configures a GoogleTranscriber.
type GoogleOption func(*GoogleTranscriber)

// WithGoogleHTTPClient sets a custom HTTP client (for testing).
func WithGoogleHTTPClient(c httpDoer) GoogleOption {
	return func(t *GoogleTranscriber) { t.httpClient = c }
}

// NewGoogleTranscriber creates a GoogleTranscriber.
func NewGoogleTranscriber(apiKey string, opts ...GoogleOption) *GoogleTranscriber {
	t := &GoogleTranscriber{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// recognizeRequest is the Speech-to-Text request body.
type recognizeRequest struct {
	Config recognizeConfig `json:"config"`
	Audio  recognizeAudio  `json:"audio"`
}

type recognizeConfig struct {
	Encoding              string `json:"encoding"`
	SampleRateHertz       int    `json:"sampleRateHertz"`
	LanguageCode          string `json:"languageCode"`
	EnableWordTimeOffsets bool   `json:"enableWordTimeOffsets"`
}

type recognizeAudio struct {
	Content string `json:"content"`
}

// Transcribe uploads the audio inline and returns the decoded recognition
// response, a {"results": [...]} payload carrying word time offsets when
// requested.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (any, error) {
	data, err := os.ReadFile(audioPath) // #nosec G304 -- audioPath is a pipeline artifact
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	language := opts.Language
	if language == "" {
		language = "en-US"
	}

	reqBody := recognizeRequest{
		Config: recognizeConfig{
			Encoding:              "LINEAR16",
			SampleRateHertz:       16000,
			LanguageCode:          language,
			EnableWordTimeOffsets: opts.Timestamps,
		},
		Audio: recognizeAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode recognize request: %w", err)
	}

	url := googleSpeechURL + "?key=" + t.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognize request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, respBody)
	}

	var payload any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("parse recognize response: %w", err)
	}
	return payload, nil
}
