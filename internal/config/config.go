// Package config loads pipeline configuration from the environment.
package config

import (
	"strconv"
	"strings"
)

// Environment variable keys.
const (
	EnvASRProvider       = "ASR_PROVIDER"
	EnvASRLanguage       = "ASR_LANGUAGE"
	EnvASRTimestamps     = "ASR_TIMESTAMPS"
	EnvTranslateProvider = "TRANSLATE_PROVIDER"
	EnvTranslateTarget   = "TRANSLATE_TARGET"
	EnvTTSProvider       = "TTS_PROVIDER"
	EnvTTSLanguage       = "TTS_LANGUAGE"
	EnvTTSVoice          = "TTS_VOICE"
	EnvMergeMode         = "MERGE_MODE"
	EnvBurnSubtitles     = "BURN_SUBTITLES"
	EnvEnhance           = "ENHANCE"
	EnvSRTMaxWords       = "SRT_MAX_WORDS"
	EnvSRTMaxLineDur     = "SRT_MAX_LINE_DURATION"
	EnvSRTMaxChars       = "SRT_MAX_CHARS"
	EnvUploadDir         = "UPLOAD_DIR"
	EnvRedisURL          = "REDIS_URL"
	EnvHTTPAddr          = "HTTP_ADDR"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvGoogleAPIKey      = "GOOGLE_API_KEY"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
)

// Merge modes for the dub track.
const (
	MergeReplace = "replace"
	MergeMix     = "mix"
)

// Config holds worker and server configuration loaded at startup.
// Job payload flags override MergeMode, BurnSubtitles and Enhance per job.
type Config struct {
	ASRProvider   string
	ASRLanguage   string
	ASRTimestamps bool

	TranslateProvider string
	TranslateTarget   string

	TTSProvider string
	TTSLanguage string
	TTSVoice    string

	MergeMode     string
	BurnSubtitles bool
	Enhance       bool

	SRTMaxWords      int
	SRTMaxLineDurSec float64
	SRTMaxChars      int

	UploadDir string
	RedisURL  string
	HTTPAddr  string

	OpenAIKey    string
	GoogleAPIKey string
	GeminiAPIKey string
}

// Load reads configuration using the given environment lookup
// (typically os.Getenv; injected for testing).
func Load(getenv func(string) string) Config {
	return Config{
		ASRProvider:       orDefault(getenv(EnvASRProvider), "mock"),
		ASRLanguage:       getenv(EnvASRLanguage),
		ASRTimestamps:     Truthy(getenv(EnvASRTimestamps)),
		TranslateProvider: orDefault(getenv(EnvTranslateProvider), "google"),
		TranslateTarget:   orDefault(getenv(EnvTranslateTarget), "id"),
		TTSProvider:       orDefault(getenv(EnvTTSProvider), "google"),
		TTSLanguage:       orDefault(getenv(EnvTTSLanguage), "id-ID"),
		TTSVoice:          getenv(EnvTTSVoice),
		MergeMode:         NormalizeMergeMode(getenv(EnvMergeMode)),
		BurnSubtitles:     Truthy(getenv(EnvBurnSubtitles)),
		Enhance:           Truthy(getenv(EnvEnhance)),
		SRTMaxWords:       intOrDefault(getenv(EnvSRTMaxWords), 7),
		SRTMaxLineDurSec:  floatOrDefault(getenv(EnvSRTMaxLineDur), 4.0),
		SRTMaxChars:       intOrDefault(getenv(EnvSRTMaxChars), 80),
		UploadDir:         orDefault(getenv(EnvUploadDir), "uploads"),
		RedisURL:          orDefault(getenv(EnvRedisURL), "redis://localhost:6379"),
		HTTPAddr:          orDefault(getenv(EnvHTTPAddr), ":8080"),
		OpenAIKey:         getenv(EnvOpenAIKey),
		GoogleAPIKey:      getenv(EnvGoogleAPIKey),
		GeminiAPIKey:      getenv(EnvGeminiAPIKey),
	}
}

// Truthy reports whether a submission or environment flag value is set.
// Only the string "true" (case-insensitive) counts.
func Truthy(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// NormalizeMergeMode lower-cases the mode and defaults unknown values
// to replace.
func NormalizeMergeMode(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case MergeMix:
		return MergeMix
	default:
		return MergeReplace
	}
}

// ttsLanguages maps base translation targets to TTS language codes.
// Unknown targets fall through to the configured TTS default.
var ttsLanguages = map[string]string{
	"id": "id-ID",
	"en": "en-US",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"fr": "fr-FR",
	"de": "de-DE",
	"es": "es-ES",
	"pt": "pt-BR",
	"zh": "cmn-CN",
}

// TTSLanguageFor returns the TTS language code for a translation target.
// Accepts bare ISO 639-1 codes and locales ("pt-BR", "pt_BR"); locales map
// through their base language.
func (c Config) TTSLanguageFor(target string) string {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(target), "_", "-"))
	base, _, _ := strings.Cut(normalized, "-")
	if code, ok := ttsLanguages[base]; ok {
		return code
	}
	return c.TTSLanguage
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func intOrDefault(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func floatOrDefault(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
