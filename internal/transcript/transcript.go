// Package transcript defines the canonical transcript schema and the
// normalization layer that maps heterogeneous ASR provider payloads onto it.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Word is a single word with timing, times in fractional seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a contiguous stretch of speech. Words is present only when the
// provider supplied word-level timing.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the canonical shape all downstream code consumes.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// HasWords reports whether any segment carries word-level timing.
func (t Transcript) HasWords() bool {
	for _, seg := range t.Segments {
		if len(seg.Words) > 0 {
			return true
		}
	}
	return false
}

// AllWords flattens words across all segments preserving order.
func (t Transcript) AllWords() []Word {
	var words []Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// JoinedText returns the whitespace-joined concatenation of segment texts.
func (t Transcript) JoinedText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if s := strings.TrimSpace(seg.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// WriteSidecar persists the transcript as pretty-printed JSON next to the
// plain-text artifact for inspection.
func (t Transcript) WriteSidecar(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript sidecar: %w", err)
	}
	return nil
}
