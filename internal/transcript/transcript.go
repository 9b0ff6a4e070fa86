package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"reelcut/internal/captions"
)

// Segment is a sentence-level span of the transcript.
type Segment struct {
	Text  string
	Start float64
	End   float64
	Words []captions.Word
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is a loaded transcript.
type Transcript struct {
	Language string
	Segments []Segment
	words    []captions.Word
}

type rawWord struct {
	Word  string   `json:"word"`
	Text  string   `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type rawSegment struct {
	Text  string    `json:"text"`
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Words []rawWord `json:"words"`
}

type rawTranscript struct {
	Language     string       `json:"language"`
	Segments     []rawSegment `json:"segments"`
	WordSegments []rawWord    `json:"word_segments"`
}

// Load reads a transcript JSON file.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes transcript JSON. Words are trimmed and upper-cased; words
// without text or timing are skipped. When segments carry no words the
// top-level word_segments list is used.
func Parse(data []byte) (*Transcript, error) {
	var raw rawTranscript
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	t := &Transcript{Language: strings.TrimSpace(raw.Language)}
	for _, seg := range raw.Segments {
		segment := Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
			Words: convertWords(seg.Words),
		}
		t.Segments = append(t.Segments, segment)
		t.words = append(t.words, segment.Words...)
	}
	if len(t.words) == 0 {
		t.words = convertWords(raw.WordSegments)
	}
	return t, nil
}

func convertWords(raw []rawWord) []captions.Word {
	var words []captions.Word
	for _, w := range raw {
		text := w.Word
		if text == "" {
			text = w.Text
		}
		text = strings.TrimSpace(text)
		if text == "" || w.Start == nil || w.End == nil {
			continue
		}
		words = append(words, captions.Word{
			Text:  captions.Upper(text),
			Start: *w.Start,
			End:   *w.End,
		})
	}
	return words
}

// Words returns every timed word in source order.
func (t *Transcript) Words() []captions.Word {
	if t == nil {
		return nil
	}
	return append([]captions.Word(nil), t.words...)
}

// HasSegments reports whether the transcript has any non-empty segment.
func (t *Transcript) HasSegments() bool {
	if t == nil {
		return false
	}
	for _, seg := range t.Segments {
		if seg.Text != "" && seg.End > seg.Start {
			return true
		}
	}
	return false
}

// Timestamped renders segments as "[start - end] text" lines.
func (t *Transcript) Timestamped() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, seg := range t.Segments {
		if seg.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%.1fs - %.1fs] %s\n", seg.Start, seg.End, seg.Text)
	}
	return b.String()
}
