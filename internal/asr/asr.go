// Package asr turns audio files into transcription payloads. Providers
// return the raw response shape they received; the transcript package
// normalizes all shapes into one structure.
package asr

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
)

// Options configures a transcription request.
type Options struct {
	// Language hints the audio language as an ISO 639-1 base code ("id",
	// "en"). Empty means auto-detect where the provider supports it.
	Language string

	// Timestamps requests per-word timing in the response.
	Timestamps bool
}

// Transcriber converts an audio file into a provider-shaped transcription
// payload.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (any, error)
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber = (*OpenAITranscriber)(nil)
	_ Transcriber = (*GoogleTranscriber)(nil)
	_ Transcriber = (*MockTranscriber)(nil)
)

// MockTranscriber produces a deterministic transcript without calling any
// API. Used in development and tests.
type MockTranscriber struct{}

// NewMockTranscriber creates a MockTranscriber.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns a fixed verbose-style payload referencing the input
// file name.
func (m *MockTranscriber) Transcribe(_ context.Context, audioPath string, _ Options) (any, error) {
	text := fmt.Sprintf("Placeholder transcript for %s.", filepath.Base(audioPath))
	return map[string]any{
		"text": text,
		"segments": []any{
			map[string]any{
				"text":  text,
				"start": 0.0,
				"end":   2.0,
			},
		},
	}, nil
}
