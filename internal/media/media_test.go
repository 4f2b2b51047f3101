package media

import (
	"context"
	"strings"
	"testing"
)

// fakeTool builds a Tool with canned runner outputs, bypassing binary
// resolution.
func fakeTool(run runFn, runStdout runFn, runProgress runProgressFn) *Tool {
	return &Tool{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		run:         run,
		runStdout:   runStdout,
		runProgress: runProgress,
	}
}

func TestBuildMergeArgsReplace(t *testing.T) {
	t.Parallel()

	args := BuildMergeArgs("in.mp4", "tts.mp3", "out.mp4", MergeOptions{})
	joined := strings.Join(args, " ")

	for _, want := range []string{"-map 0:v", "-map 1:a", "-shortest", "-c:v copy"} {
		if !strings.Contains(joined, want) {
			t.Errorf("replace args missing %q: %s", want, joined)
		}
	}
	if strings.Contains(joined, "filter_complex") {
		t.Errorf("replace mode must not build a filter graph: %s", joined)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output path must be last, got %q", args[len(args)-1])
	}
}

func TestBuildMergeArgsMix(t *testing.T) {
	t.Parallel()

	// TTS duration 6s: fade = min(0.3, 6/5) = 0.3, fade-out starts at 5.7.
	args := BuildMergeArgs("in.mp4", "tts.mp3", "out.mp4", MergeOptions{
		Mix:            true,
		TTSDurationSec: 6,
	})
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"volume=0.7",
		"afade=t=in:st=0:d=0.3",
		"afade=t=out:st=5.7:d=0.3",
		"amix=inputs=2:duration=shortest:dropout_transition=0",
		"dynaudnorm",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("mix filter missing %q: %s", want, joined)
		}
	}
}

func TestBuildMergeArgsMixZeroDuration(t *testing.T) {
	t.Parallel()

	// A failed TTS probe yields duration 0 and a zero-length fade.
	args := BuildMergeArgs("in.mp4", "tts.mp3", "out.mp4", MergeOptions{
		Mix:            true,
		TTSDurationSec: 0,
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "afade=t=in:st=0:d=0") {
		t.Errorf("zero-duration fade missing: %s", joined)
	}
	if !strings.Contains(joined, "afade=t=out:st=0:d=0") {
		t.Errorf("zero fade-out start missing: %s", joined)
	}
}

func TestBuildMergeArgsBurnSubtitles(t *testing.T) {
	t.Parallel()

	args := BuildMergeArgs("in.mp4", "tts.mp3", "out.mp4", MergeOptions{
		SubtitlePath: "/uploads/movie.srt",
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "subtitles=/uploads/movie.srt") {
		t.Errorf("subtitles filter missing: %s", joined)
	}
	if strings.Contains(joined, "-c:v copy") {
		t.Errorf("burning subtitles cannot stream-copy video: %s", joined)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	probeJSON := `{
		"streams": [{"codec_type": "video"}, {"codec_type": "audio"}],
		"format": {"duration": "12.500000"}
	}`
	tool := fakeTool(nil, func(ctx context.Context, path string, args []string) (string, error) {
		if path != "ffprobe" {
			t.Errorf("expected ffprobe invocation, got %q", path)
		}
		return probeJSON, nil
	}, nil)

	got, err := tool.Probe(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if got.DurationSec != 12.5 {
		t.Errorf("DurationSec = %v, want 12.5", got.DurationSec)
	}
	if !got.HasVideo() {
		t.Error("HasVideo() = false, want true")
	}
	if len(got.Streams) != 2 {
		t.Errorf("len(Streams) = %d, want 2", len(got.Streams))
	}
}

func TestProbeAudioOnly(t *testing.T) {
	t.Parallel()

	tool := fakeTool(nil, func(context.Context, string, []string) (string, error) {
		return `{"streams": [{"codec_type": "audio"}], "format": {"duration": "3"}}`, nil
	}, nil)

	got, err := tool.Probe(context.Background(), "in.wav")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if got.HasVideo() {
		t.Error("HasVideo() = true for audio-only input")
	}
}

func TestExtractAudioProgress(t *testing.T) {
	t.Parallel()

	tool := fakeTool(nil,
		func(context.Context, string, []string) (string, error) {
			return `{"streams": [], "format": {"duration": "10"}}`, nil
		},
		func(ctx context.Context, path string, args []string, onLine lineFn) error {
			onLine("out_time_us", "2500000")
			onLine("out_time_us", "5000000")
			onLine("out_time_us", "10000000")
			return nil
		})

	var reported []int
	err := tool.ExtractAudio(context.Background(), "in.mp4", "out.wav", func(p int) {
		reported = append(reported, p)
	})
	if err != nil {
		t.Fatalf("ExtractAudio() error: %v", err)
	}

	// 25%, 50%, 100% from the stream, then the final 100.
	want := []int{25, 50, 100, 100}
	if len(reported) != len(want) {
		t.Fatalf("reported = %v, want %v", reported, want)
	}
	for i := range want {
		if reported[i] != want[i] {
			t.Errorf("reported[%d] = %d, want %d", i, reported[i], want[i])
		}
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Errorf("progress not monotone: %v", reported)
		}
	}
}

func TestParseOutTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value string
		want       float64
		ok         bool
	}{
		{"out_time_us", "1500000", 1.5, true},
		{"out_time_ms", "1500000", 1.5, true},
		{"out_time", "00:00:02.500000", 2.5, true},
		{"out_time", "01:02:03.000000", 3723, true},
		{"out_time_us", "garbage", 0, false},
		{"fps", "30", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseOutTime(tt.key, tt.value)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseOutTime(%q, %q) = (%v, %v), want (%v, %v)",
				tt.key, tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	t.Parallel()

	if got := escapeFilterPath(`C:\subs\movie.srt`); got != `C\:\\subs\\movie.srt` {
		t.Errorf("escapeFilterPath() = %q", got)
	}
}
