package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// openAITranscriptionURL is the OpenAI audio transcription endpoint.
	openAITranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"

	// whisperModel is the transcription model.
	whisperModel = "whisper-1"
)

// OpenAITranscriber transcribes audio through OpenAI's Whisper API.
//
// It uses direct multipart HTTP rather than the go-openai client because
// the library does not expose the timestamp_granularities parameter, which
// is needed for word-level timing.
type OpenAITranscriber struct {
	apiKey     string
	httpClient httpDoer
}

// OpenAIOption configures an OpenAITranscriber.
type OpenAIOption func(*OpenAITranscriber)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) OpenAIOption {
	return func(t *OpenAITranscriber) { t.httpClient = c }
}

// NewOpenAITranscriber creates an OpenAITranscriber.
func NewOpenAITranscriber(apiKey string, opts ...OpenAIOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe uploads the audio file and returns the decoded verbose_json
// response. With opts.Timestamps the response carries a word list alongside
// segments.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (any, error) {
	file, err := os.Open(audioPath) // #nosec G304 -- audioPath is a pipeline artifact
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file to form: %w", err)
	}

	fields := map[string]string{
		"model":           whisperModel,
		"response_format": string(openai.AudioResponseFormatVerboseJSON),
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write %s field: %w", key, err)
		}
	}
	if opts.Timestamps {
		// Repeated field; verbose_json always includes segments, the word
		// granularity has to be asked for.
		if err := writer.WriteField("timestamp_granularities[]", "word"); err != nil {
			return nil, fmt.Errorf("write timestamp_granularities field: %w", err)
		}
		if err := writer.WriteField("timestamp_granularities[]", "segment"); err != nil {
			return nil, fmt.Errorf("write timestamp_granularities field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAITranscriptionURL, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("transcription request: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("transcription request: %w", err)
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
		return nil, fmt.Errorf("parse transcription response: %w", err)
	}
	return payload, nil
}

// classifyHTTPError maps an HTTP error response to a sentinel error. OpenAI
// and Google share the {"error": {...}} envelope, so the go-openai error
// type decodes the message for either provider.
func classifyHTTPError(statusCode int, body []byte) error {
	var errResp openai.ErrorResponse
	msg := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, msg)
	}
}
