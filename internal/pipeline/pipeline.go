// Package pipeline drives one dubbing job through its stages: extract,
// optional enhance, transcribe, translate, synthesize, optional merge.
// Stage failures follow a fixed fallback policy; only a missing source or
// a failed extraction fails the job, every other stage degrades and leaves
// a marker file next to the artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/niiell/aiweb/internal/asr"
	"github.com/niiell/aiweb/internal/config"
	"github.com/niiell/aiweb/internal/media"
	"github.com/niiell/aiweb/internal/queue"
	"github.com/niiell/aiweb/internal/retry"
	"github.com/niiell/aiweb/internal/subtitle"
	"github.com/niiell/aiweb/internal/transcript"
	"github.com/niiell/aiweb/internal/translate"
	"github.com/niiell/aiweb/internal/tts"
)

// MediaTool is the slice of the media package the pipeline invokes.
// *media.Tool satisfies it; tests inject fakes.
type MediaTool interface {
	ExtractAudio(ctx context.Context, inPath, outPath string, onProgress media.ProgressFunc) error
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
	ConvertForASR(ctx context.Context, inPath, outPath string) error
	Denoise(ctx context.Context, inPath, outPath string) error
	Merge(ctx context.Context, videoPath, audioPath, outPath string, opts media.MergeOptions) error
}

// Deps are the capabilities one Engine drives.
type Deps struct {
	Media       MediaTool
	Transcriber asr.Transcriber
	Translator  translate.Translator
	Synthesizer tts.Synthesizer
}

// ProgressFunc receives job progress in 0..100. Reports are advisory;
// implementations must not fail the pipeline.
type ProgressFunc func(percent int)

// Engine executes dubbing jobs.
type Engine struct {
	deps     Deps
	cfg      config.Config
	log      *slog.Logger
	retryCfg retry.Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRetryConfig overrides the provider retry policy (for testing).
func WithRetryConfig(cfg retry.Config) Option {
	return func(e *Engine) { e.retryCfg = cfg }
}

// New creates an Engine.
func New(cfg config.Config, deps Deps, opts ...Option) *Engine {
	e := &Engine{
		deps: deps,
		cfg:  cfg,
		log:  slog.Default(),
		retryCfg: retry.Config{
			Retries:  2,
			MinDelay: 500 * time.Millisecond,
			Factor:   2,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the full pipeline for one job and returns the artifact
// manifest. The returned error is non-nil only for fatal failures.
func (e *Engine) Run(ctx context.Context, data queue.JobData, report ProgressFunc) (*queue.Result, error) {
	if report == nil {
		report = func(int) {}
	}

	if data.FilePath == "" {
		return nil, ErrSourceMissing
	}
	if _, err := os.Stat(data.FilePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, data.FilePath)
	}

	p := resolveParams(e.cfg, data)
	art := newArtifacts(data.FilePath)
	log := e.log.With("stem", art.stem)
	var warnings []string

	report(0)

	// Extract. The only fatal media stage.
	err := e.withRetry(ctx, func() error {
		return e.deps.Media.ExtractAudio(ctx, data.FilePath, art.audio(), func(pct int) {
			report(pct * 20 / 100)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	report(20)

	audioPath := art.audio()
	if p.Enhance {
		report(15)
		err := e.withRetry(ctx, func() error {
			return e.deps.Media.Denoise(ctx, audioPath, art.enhancedAudio())
		})
		if err != nil {
			log.Warn("enhance failed, using original audio", "error", err)
			writeMarker(art.enhanceErrorMarker(), err.Error())
			warnings = append(warnings, "enhance failed: "+err.Error())
		} else {
			audioPath = art.enhancedAudio()
		}
		report(20)
	}

	ts, asrFailed := e.transcribe(ctx, p, art, audioPath, log)
	report(25)
	if asrFailed {
		warnings = append(warnings, "transcription failed: "+ts.Text)
	}

	// A failed transcription stores the bare error text; the header marks a
	// real transcript only.
	transcriptText := ts.Text
	if !asrFailed {
		transcriptText = "TRANSCRIPT\nSource: " + sourceName(data) + "\n\n" + ts.Text
	}
	if err := os.WriteFile(art.transcript(), []byte(transcriptText), 0o644); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	if err := ts.WriteSidecar(art.transcriptSidecar()); err != nil {
		return nil, fmt.Errorf("write transcript sidecar: %w", err)
	}

	translated, translationFailed := e.translateText(ctx, p, ts.Text, log)
	if translationFailed {
		warnings = append(warnings, "translation failed, using transcript for speech")
	}
	if err := os.WriteFile(art.translated(), []byte(translated), 0o644); err != nil {
		return nil, fmt.Errorf("write translation: %w", err)
	}
	report(45)

	// Speech input falls back to the transcript when translation failed.
	ttsText := translated
	if translationFailed {
		ttsText = ts.Text
	}

	report(55)
	ttsFailed := false
	err = e.withRetry(ctx, func() error {
		return e.deps.Synthesizer.Synthesize(ctx, ttsText, art.tts(), tts.Options{
			LanguageCode: p.TTSLanguage,
			Voice:        p.TTSVoice,
		})
	})
	if err != nil {
		ttsFailed = true
		log.Warn("synthesis failed, skipping merge", "error", err)
		writeMarker(art.ttsErrorMarker(), err.Error())
		warnings = append(warnings, "speech synthesis failed: "+err.Error())
	} else {
		report(85)
	}

	srtWritten := false
	if p.BurnSubtitles {
		cues := e.buildCues(ctx, p, ts, ttsText, data.FilePath)
		if len(cues) > 0 {
			if err := os.WriteFile(art.subtitles(), []byte(subtitle.Render(cues)), 0o644); err != nil {
				return nil, fmt.Errorf("write subtitles: %w", err)
			}
			srtWritten = true
		}
	}

	merged := false
	if !ttsFailed {
		report(90)
		merged = e.merge(ctx, p, art, data.FilePath, srtWritten, &warnings, log)
		if merged {
			report(95)
		}
	}

	result := buildResult(art, merged, warnings)
	report(100)
	log.Info("job finished", "artifacts", len(result.Artifacts), "warnings", len(warnings))
	return result, nil
}

// transcribe runs ASR and normalizes the payload. On failure the transcript
// text carries the error so downstream stages still have input.
func (e *Engine) transcribe(ctx context.Context, p Params, art artifacts, audioPath string, log *slog.Logger) (transcript.Transcript, bool) {
	asrInput := audioPath
	if p.ASRProvider == "google" {
		// Speech-to-Text wants mono 16 kHz input.
		err := e.withRetry(ctx, func() error {
			return e.deps.Media.ConvertForASR(ctx, audioPath, art.asrAudio())
		})
		if err != nil {
			log.Warn("asr resample failed, sending original audio", "error", err)
		} else {
			asrInput = art.asrAudio()
		}
	}

	payload, err := retry.Do(ctx, e.retryCfg, func() (any, error) {
		return e.deps.Transcriber.Transcribe(ctx, asrInput, asr.Options{
			Language:   p.ASRLanguage,
			Timestamps: p.ASRTimestamps,
		})
	})
	if err != nil {
		log.Warn("transcription failed", "error", err)
		return transcript.Transcript{Text: "ASR error: " + err.Error()}, true
	}
	return transcript.Normalize(payload), false
}

// translateText translates the transcript. On failure the returned text is
// the error string, flagged so callers pick a different speech input.
func (e *Engine) translateText(ctx context.Context, p Params, text string, log *slog.Logger) (string, bool) {
	translated, err := retry.Do(ctx, e.retryCfg, func() (string, error) {
		return e.deps.Translator.Translate(ctx, text, p.TargetLang)
	})
	if err != nil {
		log.Warn("translation failed", "error", err)
		return "TRANSLATION error: " + err.Error(), true
	}
	return translated, false
}

// buildCues picks the subtitle algorithm: word-grouped when word timing
// exists, per-segment when only segments exist, proportional over the
// spoken text otherwise.
func (e *Engine) buildCues(ctx context.Context, p Params, ts transcript.Transcript, spokenText, sourcePath string) []subtitle.Cue {
	b := subtitle.NewBuilder(p.SRTMaxWords, p.SRTMaxLineDur, p.SRTMaxChars)

	if ts.HasWords() {
		return b.FromWords(ts.AllWords())
	}
	if len(ts.Segments) > 0 {
		return b.FromSegments(ts.Segments)
	}

	duration := 1.0
	if probe, err := e.deps.Media.Probe(ctx, sourcePath); err == nil && probe.DurationSec > 1 {
		duration = probe.DurationSec
	}
	return b.FromText(spokenText, duration)
}

// merge combines the dub track back into the source video. All failures
// here are tolerated; the job completes without a dubbed artifact.
func (e *Engine) merge(ctx context.Context, p Params, art artifacts, sourcePath string, srtWritten bool, warnings *[]string, log *slog.Logger) bool {
	probe, err := retry.Do(ctx, e.retryCfg, func() (media.ProbeResult, error) {
		return e.deps.Media.Probe(ctx, sourcePath)
	})
	if err != nil {
		log.Warn("source probe failed, skipping merge", "error", err)
		writeMarker(art.mergeErrorMarker(), err.Error())
		*warnings = append(*warnings, "merge failed: "+err.Error())
		return false
	}
	if !probe.HasVideo() {
		log.Info("source has no video stream, skipping merge")
		writeMarker(art.mergeSkipMarker(), media.ErrNoVideoStream.Error())
		*warnings = append(*warnings, "merge skipped: "+media.ErrNoVideoStream.Error())
		return false
	}

	opts := media.MergeOptions{Mix: p.MergeMode == config.MergeMix}
	if opts.Mix {
		// A failed dub probe leaves duration 0: zero-length fade, still a
		// valid filter.
		if ttsProbe, err := e.deps.Media.Probe(ctx, art.tts()); err == nil {
			opts.TTSDurationSec = ttsProbe.DurationSec
		}
	}
	if srtWritten {
		srtPath := art.subtitles()
		if abs, err := filepath.Abs(srtPath); err == nil {
			srtPath = abs
		}
		opts.SubtitlePath = srtPath
	}

	err = e.withRetry(ctx, func() error {
		return e.deps.Media.Merge(ctx, sourcePath, art.tts(), art.dubbed(), opts)
	})
	if err != nil {
		log.Warn("merge failed", "error", err)
		writeMarker(art.mergeErrorMarker(), err.Error())
		*warnings = append(*warnings, "merge failed: "+err.Error())
		return false
	}
	return true
}

// withRetry adapts an error-only operation to the retry helper.
func (e *Engine) withRetry(ctx context.Context, fn func() error) error {
	_, err := retry.Do(ctx, e.retryCfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// buildResult assembles the manifest from artifacts that exist on disk.
func buildResult(art artifacts, merged bool, warnings []string) *queue.Result {
	result := &queue.Result{
		Message:   "dubbing pipeline completed",
		Artifacts: map[string]string{},
		Warnings:  warnings,
	}

	add := func(kind, path string) {
		if _, err := os.Stat(path); err == nil {
			result.Artifacts[kind] = filepath.Base(path)
		}
	}
	add("audio", art.audio())
	add("enhancedAudio", art.enhancedAudio())
	add("transcript", art.transcript())
	add("translated", art.translated())
	add("tts", art.tts())
	add("subtitles", art.subtitles())
	if merged {
		add("dubbed", art.dubbed())
	}
	return result
}

// writeMarker leaves a diagnostic file next to the job's artifacts.
// Best-effort: a failed marker write is not worth failing anything over.
func writeMarker(path, message string) {
	_ = os.WriteFile(path, []byte(message+"\n"), 0o644)
}

// sourceName returns the display name of the upload.
func sourceName(data queue.JobData) string {
	if data.OriginalName != "" {
		return data.OriginalName
	}
	return filepath.Base(data.FilePath)
}
