package pipeline

import (
	"path/filepath"
	"strings"
)

// artifacts derives every artifact path a job can produce from the source
// path. The stem (source basename sans extension) keys the whole set; the
// upload layer guarantees stem uniqueness, so jobs never collide.
type artifacts struct {
	dir  string
	stem string
}

func newArtifacts(sourcePath string) artifacts {
	base := filepath.Base(sourcePath)
	return artifacts{
		dir:  filepath.Dir(sourcePath),
		stem: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

func (a artifacts) path(suffix string) string {
	return filepath.Join(a.dir, a.stem+suffix)
}

func (a artifacts) audio() string             { return a.path("-audio.wav") }
func (a artifacts) enhancedAudio() string     { return a.path("-audio-enhanced.wav") }
func (a artifacts) asrAudio() string          { return a.path("-audio-16k.wav") }
func (a artifacts) transcript() string        { return a.path("-transcript.txt") }
func (a artifacts) transcriptSidecar() string { return a.path("-transcript.txt.json") }
func (a artifacts) translated() string        { return a.path("-translated.txt") }
func (a artifacts) tts() string               { return a.path("-tts.mp3") }
func (a artifacts) subtitles() string         { return a.path(".srt") }
func (a artifacts) dubbed() string            { return a.path("-dubbed.mp4") }

func (a artifacts) enhanceErrorMarker() string { return a.path("-enhance.error.txt") }
func (a artifacts) ttsErrorMarker() string     { return a.path("-tts.mp3.error.txt") }
func (a artifacts) mergeErrorMarker() string   { return a.path("-merge.error.txt") }
func (a artifacts) mergeSkipMarker() string    { return a.path("-merge.skip.txt") }
