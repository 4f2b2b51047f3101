// Package media wraps ffmpeg and ffprobe for the decode, encode and
// filtering operations the dubbing pipeline depends on.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Environment variables for custom binary paths.
const (
	envFFmpegPath  = "FFMPEG_PATH"
	envFFprobePath = "FFPROBE_PATH"
)

// ProgressFunc receives an operation's completion percent in 0..100.
type ProgressFunc func(percent int)

// Stream describes one stream of a probed container.
type Stream struct {
	Kind string // "video", "audio", ...
}

// ProbeResult is the subset of ffprobe output the pipeline consumes.
type ProbeResult struct {
	DurationSec float64
	Streams     []Stream
}

// HasVideo reports whether any probed stream is a video stream.
func (p ProbeResult) HasVideo() bool {
	for _, s := range p.Streams {
		if s.Kind == "video" {
			return true
		}
	}
	return false
}

// MergeOptions parametrize merging a dub track back into the source video.
type MergeOptions struct {
	// Mix attenuates and fades the dub into the original audio instead of
	// replacing it.
	Mix bool
	// TTSDurationSec sizes the symmetric fades in mix mode. Zero yields a
	// zero-length fade, which is still a valid filter.
	TTSDurationSec float64
	// SubtitlePath, when non-empty, burns the SRT at this absolute path
	// into the video stream.
	SubtitlePath string
}

// Tool invokes ffmpeg/ffprobe with injectable runners.
type Tool struct {
	ffmpegPath  string
	ffprobePath string
	run         runFn
	runStdout   runFn
	runProgress runProgressFn
}

// Option configures a Tool.
type Option func(*Tool)

// WithRun sets a custom command runner (for testing).
func WithRun(fn runFn) Option {
	return func(t *Tool) { t.run = fn }
}

// WithRunStdout sets a custom stdout-capturing runner (for testing).
func WithRunStdout(fn runFn) Option {
	return func(t *Tool) { t.runStdout = fn }
}

// WithRunProgress sets a custom progress-streaming runner (for testing).
func WithRunProgress(fn runProgressFn) Option {
	return func(t *Tool) { t.runProgress = fn }
}

// WithPaths sets explicit ffmpeg/ffprobe binary paths.
func WithPaths(ffmpegPath, ffprobePath string) Option {
	return func(t *Tool) {
		t.ffmpegPath = ffmpegPath
		t.ffprobePath = ffprobePath
	}
}

// New resolves the ffmpeg and ffprobe binaries and returns a Tool.
// Resolution order: explicit option, environment variable, PATH lookup.
func New(opts ...Option) (*Tool, error) {
	t := &Tool{
		run:         defaultRun,
		runStdout:   defaultRunStdout,
		runProgress: defaultRunProgress,
	}
	for _, opt := range opts {
		opt(t)
	}

	var err error
	if t.ffmpegPath == "" {
		if t.ffmpegPath, err = resolveBinary(envFFmpegPath, "ffmpeg"); err != nil {
			return nil, fmt.Errorf("%w: install ffmpeg or set %s", ErrFFmpegNotFound, envFFmpegPath)
		}
	}
	if t.ffprobePath == "" {
		if t.ffprobePath, err = resolveBinary(envFFprobePath, "ffprobe"); err != nil {
			return nil, fmt.Errorf("%w: install ffprobe or set %s", ErrFFprobeNotFound, envFFprobePath)
		}
	}
	return t, nil
}

// resolveBinary locates a binary via environment override or PATH.
func resolveBinary(envKey, name string) (string, error) {
	if p := os.Getenv(envKey); p != "" {
		return p, nil
	}
	return exec.LookPath(name)
}

// ExtractAudio decodes the input's audio track to 16-bit signed PCM WAV,
// streaming completion percent to onProgress as ffmpeg reports out_time.
func (t *Tool) ExtractAudio(ctx context.Context, inPath, outPath string, onProgress ProgressFunc) error {
	duration := 0.0
	if probe, err := t.Probe(ctx, inPath); err == nil {
		duration = probe.DurationSec
	}

	args := []string{
		"-y", "-i", inPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-progress", "pipe:1",
		"-nostats",
		outPath,
	}
	err := t.runProgress(ctx, t.ffmpegPath, args, func(key, value string) {
		if onProgress == nil || duration <= 0 {
			return
		}
		if sec, ok := parseOutTime(key, value); ok {
			onProgress(clampPercent(sec / duration * 100))
		}
	})
	if err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

// ffprobe JSON output shapes.
type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

// Probe returns the container duration and stream kinds of the input.
func (t *Tool) Probe(ctx context.Context, path string) (ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := t.runStdout(ctx, t.ffprobePath, args)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe %s: %w", path, err)
	}

	var parsed probeOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return ProbeResult{}, fmt.Errorf("parse probe output: %w", err)
	}

	result := ProbeResult{}
	if d, err := parseFloat(parsed.Format.Duration); err == nil {
		result.DurationSec = d
	}
	for _, s := range parsed.Streams {
		result.Streams = append(result.Streams, Stream{Kind: s.CodecType})
	}
	return result, nil
}

// ConvertForASR resamples audio to mono 16 kHz 16-bit PCM WAV, the input
// format speech recognizers expect.
func (t *Tool) ConvertForASR(ctx context.Context, inPath, outPath string) error {
	args := []string{
		"-y", "-i", inPath,
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "pcm_s16le",
		outPath,
	}
	if _, err := t.run(ctx, t.ffmpegPath, args); err != nil {
		return fmt.Errorf("convert for asr: %w", err)
	}
	return nil
}

// Denoise applies a 200 Hz highpass and an FFT denoiser, re-encoding to
// 16-bit PCM WAV.
func (t *Tool) Denoise(ctx context.Context, inPath, outPath string) error {
	args := []string{
		"-y", "-i", inPath,
		"-af", "highpass=f=200,afftdn",
		"-acodec", "pcm_s16le",
		outPath,
	}
	if _, err := t.run(ctx, t.ffmpegPath, args); err != nil {
		return fmt.Errorf("denoise: %w", err)
	}
	return nil
}

// Merge combines the original video stream with the synthesized audio
// track. In replace mode the dub becomes the only audio; in mix mode the
// original is attenuated to 0.7 and the faded dub is mixed over it.
func (t *Tool) Merge(ctx context.Context, videoPath, audioPath, outPath string, opts MergeOptions) error {
	args := BuildMergeArgs(videoPath, audioPath, outPath, opts)
	if _, err := t.run(ctx, t.ffmpegPath, args); err != nil {
		return fmt.Errorf("merge dub: %w", err)
	}
	return nil
}

// BuildMergeArgs constructs the ffmpeg argument list for Merge. Exposed so
// filter construction is testable without invoking ffmpeg.
func BuildMergeArgs(videoPath, audioPath, outPath string, opts MergeOptions) []string {
	args := []string{"-y", "-i", videoPath, "-i", audioPath}

	if opts.Mix {
		fade := math.Min(0.3, opts.TTSDurationSec/5)
		if fade < 0 {
			fade = 0
		}
		fadeOutStart := opts.TTSDurationSec - fade
		if fadeOutStart < 0 {
			fadeOutStart = 0
		}
		filter := fmt.Sprintf(
			"[0:a]volume=0.7[orig];"+
				"[1:a]afade=t=in:st=0:d=%s,afade=t=out:st=%s:d=%s[tts];"+
				"[orig][tts]amix=inputs=2:duration=shortest:dropout_transition=0,dynaudnorm[aout]",
			formatSeconds(fade), formatSeconds(fadeOutStart), formatSeconds(fade))
		args = append(args,
			"-filter_complex", filter,
			"-map", "0:v",
			"-map", "[aout]",
		)
	} else {
		args = append(args,
			"-map", "0:v",
			"-map", "1:a",
			"-shortest",
		)
	}

	if opts.SubtitlePath != "" {
		// Burning subtitles re-encodes the video stream; stream copy is
		// only possible without the filter.
		args = append(args, "-vf", "subtitles="+escapeFilterPath(opts.SubtitlePath))
	} else {
		args = append(args, "-c:v", "copy")
	}

	args = append(args, outPath)
	return args
}

// escapeFilterPath escapes characters ffmpeg's filter parser treats
// specially in filenames.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, `'`, `\'`)
	p = strings.ReplaceAll(p, `:`, `\:`)
	return p
}

// formatSeconds renders a fade parameter without trailing zeros noise.
func formatSeconds(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func clampPercent(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
