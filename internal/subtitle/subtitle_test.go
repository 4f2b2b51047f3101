package subtitle_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/niiell/aiweb/internal/subtitle"
	"github.com/niiell/aiweb/internal/transcript"
)

// evenWords generates n words of 0.5s each, back to back.
func evenWords(n int) []transcript.Word {
	words := make([]transcript.Word, n)
	for i := range words {
		words[i] = transcript.Word{
			Word:  fmt.Sprintf("w%02d", i),
			Start: float64(i) * 0.5,
			End:   float64(i)*0.5 + 0.5,
		}
	}
	return words
}

func TestFromWordsBounds(t *testing.T) {
	t.Parallel()

	b := subtitle.NewBuilder(7, 4.0, 80)
	words := evenWords(20) // 20 words over 10 seconds
	cues := b.FromWords(words)

	if len(cues) == 0 {
		t.Fatal("no cues built")
	}

	totalWords := 0
	prevEnd := int64(-1)
	for _, cue := range cues {
		n := len(strings.Fields(cue.Text))
		totalWords += n
		if n > 7 {
			t.Errorf("cue %d has %d words, want <= 7", cue.Index, n)
		}
		if cue.EndMS-cue.StartMS > 4000 {
			t.Errorf("cue %d spans %dms, want <= 4000", cue.Index, cue.EndMS-cue.StartMS)
		}
		if len(cue.Text) > 80 {
			t.Errorf("cue %d text is %d chars, want <= 80", cue.Index, len(cue.Text))
		}
		if cue.StartMS < prevEnd {
			t.Errorf("cue %d overlaps previous (start %d < prev end %d)",
				cue.Index, cue.StartMS, prevEnd)
		}
		prevEnd = cue.EndMS
	}
	if totalWords != 20 {
		t.Errorf("cues cover %d words, want all 20", totalWords)
	}
	// Word order must be preserved across cues.
	joined := ""
	for _, cue := range cues {
		if joined != "" {
			joined += " "
		}
		joined += cue.Text
	}
	want := ""
	for _, w := range words {
		if want != "" {
			want += " "
		}
		want += w.Word
	}
	if joined != want {
		t.Errorf("word order broken:\n got %q\nwant %q", joined, want)
	}
}

func TestFromWordsDurationBound(t *testing.T) {
	t.Parallel()

	// Three words of 3s each: no two fit under the 4s line bound.
	words := []transcript.Word{
		{Word: "a", Start: 0, End: 3},
		{Word: "b", Start: 3, End: 6},
		{Word: "c", Start: 6, End: 9},
	}
	cues := subtitle.NewBuilder(7, 4.0, 80).FromWords(words)
	if len(cues) != 3 {
		t.Fatalf("len(cues) = %d, want 3", len(cues))
	}
	if cues[1].StartMS != 3000 || cues[1].EndMS != 6000 {
		t.Errorf("cue 2 = (%d, %d), want (3000, 6000)", cues[1].StartMS, cues[1].EndMS)
	}
}

func TestFromWordsSingleOversizedWord(t *testing.T) {
	t.Parallel()

	// One word violating every bound still forms its own cue.
	long := strings.Repeat("x", 120)
	words := []transcript.Word{
		{Word: long, Start: 0, End: 10},
		{Word: "ok", Start: 10, End: 10.5},
	}
	cues := subtitle.NewBuilder(1, 1.0, 10).FromWords(words)
	if len(cues) != 2 {
		t.Fatalf("len(cues) = %d, want 2", len(cues))
	}
	if cues[0].Text != long {
		t.Errorf("oversized word not emitted alone")
	}
	if cues[0].EndMS != 10000 {
		t.Errorf("cue end = %d, want last included word's end 10000", cues[0].EndMS)
	}
}

func TestFromWordsCharBound(t *testing.T) {
	t.Parallel()

	words := []transcript.Word{
		{Word: "aaaa", Start: 0, End: 0.2},
		{Word: "bbbb", Start: 0.2, End: 0.4},
		{Word: "cccc", Start: 0.4, End: 0.6},
	}
	// Each word costs 5 chars; cap at 10 fits exactly two.
	cues := subtitle.NewBuilder(7, 4.0, 10).FromWords(words)
	if len(cues) != 2 {
		t.Fatalf("len(cues) = %d, want 2", len(cues))
	}
	if cues[0].Text != "aaaa bbbb" {
		t.Errorf("cue 1 text = %q, want %q", cues[0].Text, "aaaa bbbb")
	}
}

func TestFromSegments(t *testing.T) {
	t.Parallel()

	segs := []transcript.Segment{
		{Text: " hello ", Start: 0.1, End: 1.9},
		{Text: "", Start: 2, End: 3},
		{Text: "world", Start: 3.5, End: 4.25},
	}
	cues := subtitle.NewBuilder(0, 0, 0).FromSegments(segs)
	if len(cues) != 2 {
		t.Fatalf("len(cues) = %d, want 2 (empty segment skipped)", len(cues))
	}
	if cues[0].Text != "hello" || cues[0].StartMS != 100 || cues[0].EndMS != 1900 {
		t.Errorf("cue 1 = %#v", cues[0])
	}
	if cues[1].Index != 2 {
		t.Errorf("cue indices must be 1-based sequential, got %d", cues[1].Index)
	}
}

func TestFromTextProportional(t *testing.T) {
	t.Parallel()

	text := "Short one. This sentence is quite a bit longer! Mid size here? Tail"
	total := 12.0
	cues := subtitle.NewBuilder(0, 0, 0).FromText(text, total)
	if len(cues) != 4 {
		t.Fatalf("len(cues) = %d, want 4", len(cues))
	}

	// Durations sum to the total within rounding.
	var sumMS int64
	for _, cue := range cues {
		sumMS += cue.EndMS - cue.StartMS
	}
	if math.Abs(float64(sumMS)-total*1000) > float64(len(cues)) {
		t.Errorf("durations sum to %dms, want ~%vms", sumMS, total*1000)
	}

	// Proportionality: duration ratio tracks character-count ratio.
	d0 := float64(cues[0].EndMS - cues[0].StartMS)
	d1 := float64(cues[1].EndMS - cues[1].StartMS)
	r := (d0 / d1) / (float64(len(cues[0].Text)) / float64(len(cues[1].Text)))
	if math.Abs(r-1) > 0.01 {
		t.Errorf("duration ratio off proportion by %v", r)
	}

	// Laid end-to-end starting at 0.
	if cues[0].StartMS != 0 {
		t.Errorf("first cue starts at %d, want 0", cues[0].StartMS)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].StartMS != cues[i-1].EndMS {
			t.Errorf("cue %d start %d != previous end %d",
				i+1, cues[i].StartMS, cues[i-1].EndMS)
		}
	}
}

func TestFromTextEdgeCases(t *testing.T) {
	t.Parallel()

	b := subtitle.NewBuilder(0, 0, 0)
	if cues := b.FromText("", 10); cues != nil {
		t.Errorf("empty text should yield no cues, got %#v", cues)
	}
	if cues := b.FromText("hello", 0); cues != nil {
		t.Errorf("zero duration should yield no cues, got %#v", cues)
	}
	// No terminator: the whole text is one sentence.
	cues := b.FromText("no terminator at all", 5)
	if len(cues) != 1 || cues[0].EndMS != 5000 {
		t.Errorf("single sentence cues = %#v", cues)
	}
}

func TestTimecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00,000"},
		{1234, "00:00:01,234"},
		{61000, "00:01:01,000"},
		{3_661_999, "01:01:01,999"},
		{-5, "00:00:00,000"},
	}

	for _, tt := range tests {
		if got := subtitle.Timecode(tt.ms); got != tt.want {
			t.Errorf("Timecode(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	cues := []subtitle.Cue{
		{Index: 1, StartMS: 0, EndMS: 1500, Text: "hello"},
		{Index: 2, StartMS: 1600, EndMS: 3000, Text: "world"},
	}
	got := subtitle.Render(cues)
	want := "1\n00:00:00,000 --> 00:00:01,500\nhello\n" +
		"\n2\n00:00:01,600 --> 00:00:03,000\nworld\n"
	if got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
	if strings.Contains(got, "\r") {
		t.Error("Render() must use LF line endings")
	}
}
