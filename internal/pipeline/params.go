package pipeline

import (
	"github.com/niiell/aiweb/internal/config"
	"github.com/niiell/aiweb/internal/queue"
)

// Params is the per-job effective configuration: environment defaults with
// job-data overrides applied.
type Params struct {
	TargetLang    string
	MergeMode     string
	BurnSubtitles bool
	Enhance       bool

	ASRProvider   string
	ASRLanguage   string
	ASRTimestamps bool

	TTSLanguage string
	TTSVoice    string

	SRTMaxWords   int
	SRTMaxLineDur float64
	SRTMaxChars   int
}

// resolveParams applies the job's tri-state overrides on top of the
// environment defaults. A nil pointer field keeps the default.
func resolveParams(cfg config.Config, data queue.JobData) Params {
	p := Params{
		TargetLang:    cfg.TranslateTarget,
		MergeMode:     cfg.MergeMode,
		BurnSubtitles: cfg.BurnSubtitles,
		Enhance:       cfg.Enhance,
		ASRProvider:   cfg.ASRProvider,
		ASRLanguage:   cfg.ASRLanguage,
		ASRTimestamps: cfg.ASRTimestamps,
		TTSVoice:      cfg.TTSVoice,
		SRTMaxWords:   cfg.SRTMaxWords,
		SRTMaxLineDur: cfg.SRTMaxLineDurSec,
		SRTMaxChars:   cfg.SRTMaxChars,
	}
	if data.TargetLang != nil && *data.TargetLang != "" {
		p.TargetLang = *data.TargetLang
	}
	// The TTS locale tracks the effective target, whether it came from the
	// environment or the job.
	p.TTSLanguage = cfg.TTSLanguageFor(p.TargetLang)
	if data.MergeMode != nil {
		p.MergeMode = config.NormalizeMergeMode(*data.MergeMode)
	}
	if data.BurnSubtitles != nil {
		p.BurnSubtitles = *data.BurnSubtitles
	}
	if data.Enhance != nil {
		p.Enhance = *data.Enhance
	}
	return p
}
