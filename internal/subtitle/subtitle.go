// Package subtitle builds timed SRT cues from canonical transcripts, or
// proportionally from plain text when no timing exists.
package subtitle

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/niiell/aiweb/internal/transcript"
)

// Default cue bounds.
const (
	DefaultMaxWords      = 7
	DefaultMaxLineDurSec = 4.0
	DefaultMaxChars      = 80
)

// Cue is one SRT entry. Times are integer milliseconds to avoid accumulated
// floating drift across cues.
type Cue struct {
	Index   int
	StartMS int64
	EndMS   int64
	Text    string
}

// Builder groups words into cues under three simultaneous bounds.
type Builder struct {
	MaxWords      int
	MaxLineDurSec float64
	MaxChars      int
}

// NewBuilder returns a Builder with the given bounds, substituting defaults
// for non-positive values.
func NewBuilder(maxWords int, maxLineDurSec float64, maxChars int) Builder {
	b := Builder{MaxWords: maxWords, MaxLineDurSec: maxLineDurSec, MaxChars: maxChars}
	if b.MaxWords <= 0 {
		b.MaxWords = DefaultMaxWords
	}
	if b.MaxLineDurSec <= 0 {
		b.MaxLineDurSec = DefaultMaxLineDurSec
	}
	if b.MaxChars <= 0 {
		b.MaxChars = DefaultMaxChars
	}
	return b
}

// FromWords builds cues by greedily appending words until a bound would be
// violated. A word always enters an empty cue, so a single word exceeding
// every bound still forms its own cue.
func (b Builder) FromWords(words []transcript.Word) []Cue {
	maxDurMS := int64(b.MaxLineDurSec * 1000)
	var cues []Cue

	i := 0
	for i < len(words) {
		start := toMS(words[i].Start)
		end := toMS(words[i].End)
		chars := 0
		var parts []string

		j := i
		for j < len(words) {
			w := words[j]
			cost := len(w.Word) + 1
			if len(parts) >= 1 &&
				(toMS(w.End)-start > maxDurMS ||
					chars+cost > b.MaxChars ||
					len(parts) >= b.MaxWords) {
				break
			}
			parts = append(parts, w.Word)
			chars += cost
			end = toMS(w.End)
			j++
		}

		cues = append(cues, Cue{
			Index:   len(cues) + 1,
			StartMS: start,
			EndMS:   end,
			Text:    strings.Join(parts, " "),
		})
		i = j
	}

	return cues
}

// FromSegments emits one cue per segment using the segment's own timing.
func (b Builder) FromSegments(segments []transcript.Segment) []Cue {
	cues := make([]Cue, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Index:   len(cues) + 1,
			StartMS: toMS(seg.Start),
			EndMS:   toMS(seg.End),
			Text:    text,
		})
	}
	return cues
}

// FromText lays sentences end-to-end across totalSeconds, each sentence
// getting a share of the duration proportional to its character count.
func (b Builder) FromText(text string, totalSeconds float64) []Cue {
	sentences := splitSentences(text)
	if len(sentences) == 0 || totalSeconds <= 0 {
		return nil
	}

	totalChars := 0
	for _, s := range sentences {
		totalChars += len(s)
	}
	if totalChars == 0 {
		return nil
	}

	totalMS := totalSeconds * 1000
	cues := make([]Cue, 0, len(sentences))
	prefix := 0
	for _, s := range sentences {
		start := int64(math.Floor(totalMS * float64(prefix) / float64(totalChars)))
		prefix += len(s)
		end := int64(math.Floor(totalMS * float64(prefix) / float64(totalChars)))
		cues = append(cues, Cue{
			Index:   len(cues) + 1,
			StartMS: start,
			EndMS:   end,
			Text:    s,
		})
	}
	return cues
}

// splitSentences splits text after sentence terminators followed by
// whitespace, keeping the terminator with its sentence and trimming empties.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') &&
			i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Render emits the cues as an SRT document: UTF-8, LF line endings, cues
// separated by blank lines.
func Render(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n",
			cue.Index, Timecode(cue.StartMS), Timecode(cue.EndMS), cue.Text)
	}
	return b.String()
}

// Timecode formats integer milliseconds as HH:MM:SS,mmm with floor
// truncation on every field.
func Timecode(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms % 3_600_000 / 60_000
	s := ms % 60_000 / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, frac)
}

// toMS converts fractional seconds to floor-truncated milliseconds.
func toMS(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int64(math.Floor(seconds * 1000))
}
