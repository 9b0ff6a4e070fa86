package captions

import "strings"

// MinWordDuration is the shortest on-screen time a caption word may have.
// Words at or below it are dropped.
const MinWordDuration = 0.05

// Word is a transcribed word in source-video seconds.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ClipWord is a caption word on the clip's own timeline.
type ClipWord struct {
	Text        string
	Start       float64
	End         float64
	Highlighted bool
}

// Duration returns how long the word stays on screen.
func (w ClipWord) Duration() float64 {
	return w.End - w.Start
}

// BuildTimeline maps words onto a clip that starts at offset in the source and
// lasts clipDuration seconds. Words that miss the clip, or are too short once
// clamped to it, are dropped; the rest keep their order.
func BuildTimeline(words []Word, offset, clipDuration float64, hl Highlighter) []ClipWord {
	var out []ClipWord
	for _, w := range words {
		start := w.Start - offset
		end := w.End - offset
		if end <= 0 || start >= clipDuration {
			continue
		}
		start = max(0, start)
		end = min(clipDuration, end)
		if end-start <= MinWordDuration {
			continue
		}
		text := Upper(strings.TrimSpace(w.Text))
		if text == "" {
			continue
		}
		out = append(out, ClipWord{
			Text:        text,
			Start:       start,
			End:         end,
			Highlighted: hl.Match(text),
		})
	}
	return out
}
