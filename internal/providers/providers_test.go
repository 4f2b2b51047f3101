package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/niiell/aiweb/internal/config"
)

func TestNewTranscriber(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"mock", "openai", "google"} {
		tr, err := NewTranscriber(config.Config{ASRProvider: name})
		if err != nil {
			t.Errorf("NewTranscriber(%q) error: %v", name, err)
		}
		if tr == nil {
			t.Errorf("NewTranscriber(%q) = nil", name)
		}
	}

	_, err := NewTranscriber(config.Config{ASRProvider: "whisperx"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestNewTranslator(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"mock", "google"} {
		tr, err := NewTranslator(context.Background(), config.Config{TranslateProvider: name})
		if err != nil {
			t.Errorf("NewTranslator(%q) error: %v", name, err)
		}
		if tr == nil {
			t.Errorf("NewTranslator(%q) = nil", name)
		}
	}

	_, err := NewTranslator(context.Background(), config.Config{TranslateProvider: "deepl"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestNewSynthesizer(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"mock", "google"} {
		s, err := NewSynthesizer(config.Config{TTSProvider: name})
		if err != nil {
			t.Errorf("NewSynthesizer(%q) error: %v", name, err)
		}
		if s == nil {
			t.Errorf("NewSynthesizer(%q) = nil", name)
		}
	}

	_, err := NewSynthesizer(config.Config{TTSProvider: "polly"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}
