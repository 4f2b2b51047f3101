// Package tts synthesizes speech audio from text. The output is always an
// MP3 file written to the caller-chosen path.
package tts

import (
	"context"
	"errors"
	"net/http"
	"os"
)

// ErrEmptyAudio indicates the provider returned no audio content.
var ErrEmptyAudio = errors.New("synthesis returned empty audio")

// ErrAuthFailed indicates an invalid or missing API key.
var ErrAuthFailed = errors.New("authentication failed")

// Options configures a synthesis request.
type Options struct {
	// LanguageCode is a BCP-47 locale such as "id-ID".
	LanguageCode string

	// Voice names a provider-specific voice. Empty lets the provider pick
	// a default for the language.
	Voice string
}

// Synthesizer renders text to an MP3 file at outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string, opts Options) error
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance checks.
var (
	_ Synthesizer = (*GoogleSynthesizer)(nil)
	_ Synthesizer = (*MockSynthesizer)(nil)
)

// mockMP3 is a tiny valid-enough MP3 frame header followed by silence
// padding. Players treat it as a short silent clip.
var mockMP3 = []byte{
	0xFF, 0xFB, 0x90, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// MockSynthesizer writes a constant silent MP3 without calling any API.
type MockSynthesizer struct{}

// NewMockSynthesizer creates a MockSynthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize writes the placeholder clip to outPath.
func (m *MockSynthesizer) Synthesize(_ context.Context, _ string, outPath string, _ Options) error {
	return os.WriteFile(outPath, mockMP3, 0o644)
}
