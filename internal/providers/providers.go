// Package providers selects concrete ASR, translation and synthesis
// implementations from configuration. The pipeline depends only on the
// capability interfaces; this is the single place naming implementations.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/niiell/aiweb/internal/asr"
	"github.com/niiell/aiweb/internal/config"
	"github.com/niiell/aiweb/internal/translate"
	"github.com/niiell/aiweb/internal/tts"
)

// ErrUnknownProvider indicates a provider name no factory recognizes.
var ErrUnknownProvider = errors.New("unknown provider")

// NewTranscriber builds the configured speech recognizer.
func NewTranscriber(cfg config.Config) (asr.Transcriber, error) {
	switch cfg.ASRProvider {
	case "mock":
		return asr.NewMockTranscriber(), nil
	case "openai":
		return asr.NewOpenAITranscriber(cfg.OpenAIKey), nil
	case "google":
		return asr.NewGoogleTranscriber(cfg.GoogleAPIKey), nil
	default:
		return nil, fmt.Errorf("%w: %s=%q", ErrUnknownProvider, config.EnvASRProvider, cfg.ASRProvider)
	}
}

// NewTranslator builds the configured translator.
func NewTranslator(ctx context.Context, cfg config.Config) (translate.Translator, error) {
	switch cfg.TranslateProvider {
	case "mock":
		return translate.NewMockTranslator(), nil
	case "google":
		return translate.NewGoogleTranslator(cfg.GoogleAPIKey), nil
	case "gemini":
		return translate.NewGeminiTranslator(ctx, cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("%w: %s=%q", ErrUnknownProvider, config.EnvTranslateProvider, cfg.TranslateProvider)
	}
}

// NewSynthesizer builds the configured speech synthesizer.
func NewSynthesizer(cfg config.Config) (tts.Synthesizer, error) {
	switch cfg.TTSProvider {
	case "mock":
		return tts.NewMockSynthesizer(), nil
	case "google":
		return tts.NewGoogleSynthesizer(cfg.GoogleAPIKey), nil
	default:
		return nil, fmt.Errorf("%w: %s=%q", ErrUnknownProvider, config.EnvTTSProvider, cfg.TTSProvider)
	}
}
