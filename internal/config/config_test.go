package config_test

import (
	"testing"

	"github.com/niiell/aiweb/internal/config"
)

// fakeEnv returns a getenv func backed by a map.
func fakeEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Load(fakeEnv(nil))

	if cfg.ASRProvider != "mock" {
		t.Errorf("ASRProvider = %q, want mock", cfg.ASRProvider)
	}
	if cfg.TranslateProvider != "google" {
		t.Errorf("TranslateProvider = %q, want google", cfg.TranslateProvider)
	}
	if cfg.TranslateTarget != "id" {
		t.Errorf("TranslateTarget = %q, want id", cfg.TranslateTarget)
	}
	if cfg.TTSLanguage != "id-ID" {
		t.Errorf("TTSLanguage = %q, want id-ID", cfg.TTSLanguage)
	}
	if cfg.MergeMode != config.MergeReplace {
		t.Errorf("MergeMode = %q, want replace", cfg.MergeMode)
	}
	if cfg.BurnSubtitles || cfg.Enhance || cfg.ASRTimestamps {
		t.Error("boolean flags should default to off")
	}
	if cfg.SRTMaxWords != 7 || cfg.SRTMaxLineDurSec != 4.0 || cfg.SRTMaxChars != 80 {
		t.Errorf("SRT bounds = %d/%v/%d, want 7/4/80",
			cfg.SRTMaxWords, cfg.SRTMaxLineDurSec, cfg.SRTMaxChars)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("UploadDir = %q, want uploads", cfg.UploadDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	cfg := config.Load(fakeEnv(map[string]string{
		config.EnvASRProvider:    "openai",
		config.EnvASRTimestamps:  "TRUE",
		config.EnvMergeMode:      "MIX",
		config.EnvSRTMaxWords:    "5",
		config.EnvSRTMaxLineDur:  "2.5",
		config.EnvSRTMaxChars:    "42",
		config.EnvBurnSubtitles:  "true",
		config.EnvTranslateTarget: "en",
	}))

	if cfg.ASRProvider != "openai" {
		t.Errorf("ASRProvider = %q, want openai", cfg.ASRProvider)
	}
	if !cfg.ASRTimestamps {
		t.Error("ASRTimestamps should be true for TRUE")
	}
	if cfg.MergeMode != config.MergeMix {
		t.Errorf("MergeMode = %q, want mix", cfg.MergeMode)
	}
	if cfg.SRTMaxWords != 5 || cfg.SRTMaxLineDurSec != 2.5 || cfg.SRTMaxChars != 42 {
		t.Errorf("SRT bounds = %d/%v/%d, want 5/2.5/42",
			cfg.SRTMaxWords, cfg.SRTMaxLineDurSec, cfg.SRTMaxChars)
	}
	if !cfg.BurnSubtitles {
		t.Error("BurnSubtitles should be true")
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{" True ", true},
		{"1", false},
		{"yes", false},
		{"false", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := config.Truthy(tt.in); got != tt.want {
			t.Errorf("Truthy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeMergeMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"mix", config.MergeMix},
		{"MIX", config.MergeMix},
		{"replace", config.MergeReplace},
		{"bogus", config.MergeReplace},
		{"", config.MergeReplace},
	}

	for _, tt := range tests {
		if got := config.NormalizeMergeMode(tt.in); got != tt.want {
			t.Errorf("NormalizeMergeMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTTSLanguageFor(t *testing.T) {
	t.Parallel()

	cfg := config.Config{TTSLanguage: "id-ID"}

	tests := []struct {
		target string
		want   string
	}{
		{"id", "id-ID"},
		{"en", "en-US"},
		{"pt-BR", "pt-BR"},
		{"pt_br", "pt-BR"},
		{"zh", "cmn-CN"},
		{"xx", "id-ID"}, // unknown falls through to the configured default
		{"", "id-ID"},
	}

	for _, tt := range tests {
		if got := cfg.TTSLanguageFor(tt.target); got != tt.want {
			t.Errorf("TTSLanguageFor(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
