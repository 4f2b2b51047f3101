package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize maps a raw ASR provider payload onto the canonical schema.
// It is total and deterministic: every input produces a valid Transcript.
// Dispatch is by structural inspection, tried in order:
//
//  1. nil                                  -> empty transcript
//  2. plain string                         -> text only
//  3. {text: string, segments: array}      -> verbose shape (OpenAI whisper)
//  4. {segments: array}                    -> segment list with field fallbacks
//  5. {results: [{alternatives: [...]}]}   -> Google Speech-to-Text
//  6. anything else                        -> stringified text, no segments
func Normalize(payload any) Transcript {
	switch raw := payload.(type) {
	case nil:
		return Transcript{Text: "", Segments: []Segment{}}
	case string:
		return Transcript{Text: raw, Segments: []Segment{}}
	case map[string]any:
		if text, ok := raw["text"].(string); ok {
			if segs, ok := raw["segments"].([]any); ok {
				return Transcript{Text: text, Segments: normalizeSegments(segs)}
			}
		}
		if segs, ok := raw["segments"].([]any); ok {
			t := Transcript{Segments: normalizeSegments(segs)}
			t.Text = t.JoinedText()
			return t
		}
		if results, ok := raw["results"].([]any); ok {
			return normalizeGoogleResults(results)
		}
	}
	return Transcript{Text: stringify(payload), Segments: []Segment{}}
}

// normalizeSegments maps provider segment objects with field fallbacks:
// text falls back to transcript, start to begin/seek, end to start+duration.
func normalizeSegments(raw []any) []Segment {
	segments := make([]Segment, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		seg := Segment{
			Text:  firstString(obj, "text", "transcript"),
			Start: firstNumber(obj, "start", "begin", "seek"),
		}
		if end, ok := lookupNumber(obj, "end"); ok {
			seg.End = end
		} else if dur, ok := lookupNumber(obj, "duration"); ok {
			seg.End = seg.Start + dur
		}
		if words, ok := obj["words"].([]any); ok {
			seg.Words = normalizeWords(words)
		}
		segments = append(segments, seg)
	}
	return segments
}

// normalizeWords maps provider word objects with field fallbacks:
// word falls back to text/token, start to startTime, end to endTime.
func normalizeWords(raw []any) []Word {
	words := make([]Word, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		words = append(words, Word{
			Word:  firstString(obj, "word", "text", "token"),
			Start: firstNumber(obj, "start", "startTime"),
			End:   firstNumber(obj, "end", "endTime"),
		})
	}
	return words
}

// normalizeGoogleResults handles the Speech-to-Text response shape:
// first-alternative transcripts concatenated with spaces, and one segment
// per timed word so downstream code uniformly sees timed segments.
func normalizeGoogleResults(results []any) Transcript {
	var texts []string
	segments := []Segment{}

	for _, item := range results {
		result, ok := item.(map[string]any)
		if !ok {
			continue
		}
		alts, ok := result["alternatives"].([]any)
		if !ok || len(alts) == 0 {
			continue
		}
		alt, ok := alts[0].(map[string]any)
		if !ok {
			continue
		}

		if text, ok := alt["transcript"].(string); ok && text != "" {
			texts = append(texts, strings.TrimSpace(text))
		}

		words, ok := alt["words"].([]any)
		if !ok {
			continue
		}
		for _, w := range words {
			obj, ok := w.(map[string]any)
			if !ok {
				continue
			}
			word := firstString(obj, "word", "text", "token")
			start := googleTime(pick(obj, "start", "startTime"))
			end := googleTime(pick(obj, "end", "endTime"))
			segments = append(segments, Segment{
				Text:  word,
				Start: start,
				End:   end,
				Words: []Word{{Word: word, Start: start, End: end}},
			})
		}
	}

	return Transcript{Text: strings.Join(texts, " "), Segments: segments}
}

// googleTime converts a Speech-to-Text time value, which may be a plain
// number of seconds or an object {seconds, nanos}.
func googleTime(v any) float64 {
	if obj, ok := v.(map[string]any); ok {
		return asFloat(obj["seconds"]) + asFloat(obj["nanos"])/1e9
	}
	return asFloat(v)
}

// asFloat coerces any numeric-ish value to a finite float64, defaulting to 0.
func asFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(n, 64)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// pick returns the first present key's value.
func pick(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

// firstString returns the first present non-empty string among keys.
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first present numeric value among keys, or 0.
func firstNumber(obj map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := lookupNumber(obj, k); ok {
			return f
		}
	}
	return 0
}

// lookupNumber reports whether obj[key] is present and numeric-ish.
func lookupNumber(obj map[string]any, key string) (float64, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, false
	}
	return asFloat(v), true
}

// stringify renders an unrecognized payload as text.
func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
