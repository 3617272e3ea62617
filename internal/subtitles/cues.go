package subtitles

import (
	"fmt"
	"strings"

	"clipforge/internal/media"
	"clipforge/internal/services"
	"clipforge/internal/timeline"
)

// Word is one transcribed word on the audio's local clock.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// SceneTranscript is the word-level transcription of one scene's audio.
type SceneTranscript struct {
	SceneID string
	Words   []Word
}

// Cue is one timed subtitle display unit on the global timeline. For the
// progressive style, Text is the enclosing line's full text and Highlight is
// the index of the word currently distinguished; classic cues set Highlight
// to -1.
type Cue struct {
	Start     float64
	End       float64
	Text      string
	Words     []string
	Highlight int
}

// Options bounds classic line grouping.
type Options struct {
	MaxLineChars    int
	MaxLineDuration float64
}

// BuildCues re-bases transcripts into the global timeline and emits style
// appropriate cues, ordered by start time with no overlaps within the layer.
func BuildCues(transcripts []SceneTranscript, timing *timeline.ResolvedTiming, settings media.SubtitleSettings, opts Options) ([]Cue, error) {
	if opts.MaxLineChars <= 0 {
		opts.MaxLineChars = 42
	}
	if opts.MaxLineDuration <= 0 {
		opts.MaxLineDuration = 5.0
	}

	var cues []Cue
	for _, transcript := range transcripts {
		sceneTiming, ok := timing.Scene(transcript.SceneID)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "cues", "build",
				fmt.Sprintf("transcript references unknown scene %q", transcript.SceneID), nil)
		}

		words := cleanWords(transcript.Words)
		if len(words) == 0 {
			continue
		}
		lines := groupLines(words, opts)

		switch settings.Style {
		case media.StyleClassic:
			cues = append(cues, classicCues(lines, sceneTiming)...)
		default:
			cues = append(cues, progressiveCues(lines, sceneTiming)...)
		}
	}

	clampCues(cues)
	return cues, nil
}

func cleanWords(words []Word) []Word {
	out := words[:0:0]
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		w.Text = text
		out = append(out, w)
	}
	return out
}

// line is a run of words displayed together.
type line struct {
	words []Word
}

func (l line) text() string {
	parts := make([]string, len(l.words))
	for i, w := range l.words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func (l line) start() float64 { return l.words[0].Start }
func (l line) end() float64   { return l.words[len(l.words)-1].End }

// groupLines packs words into lines, breaking at word boundaries when either
// the character budget or the line duration budget would be exceeded. A line
// never splits a word, so a single oversized word still forms a line.
func groupLines(words []Word, opts Options) []line {
	var lines []line
	var current line
	var chars int

	for _, w := range words {
		wlen := len([]rune(w.Text))
		if len(current.words) > 0 {
			tooLong := chars+1+wlen > opts.MaxLineChars
			tooSlow := w.End-current.start() > opts.MaxLineDuration
			if tooLong || tooSlow {
				lines = append(lines, current)
				current = line{}
				chars = 0
			}
		}
		if len(current.words) > 0 {
			chars++
		}
		current.words = append(current.words, w)
		chars += wlen
	}
	if len(current.words) > 0 {
		lines = append(lines, current)
	}
	return lines
}

func classicCues(lines []line, st timeline.SceneTiming) []Cue {
	cues := make([]Cue, 0, len(lines))
	for _, l := range lines {
		cues = append(cues, Cue{
			Start:     st.Start + l.start(),
			End:       min(st.Start+l.end(), st.End()),
			Text:      l.text(),
			Highlight: -1,
		})
	}
	return cues
}

// progressiveCues emits one cue per word. Each cue shows the whole line with
// one word highlighted; a word's cue ends when the next word starts so the
// highlight hops without flicker, and the line's last word holds until the
// line ends.
func progressiveCues(lines []line, st timeline.SceneTiming) []Cue {
	var cues []Cue
	for _, l := range lines {
		text := l.text()
		wordTexts := make([]string, len(l.words))
		for i, w := range l.words {
			wordTexts[i] = w.Text
		}
		for i, w := range l.words {
			end := l.end()
			if i+1 < len(l.words) {
				end = l.words[i+1].Start
			}
			cues = append(cues, Cue{
				Start:     st.Start + w.Start,
				End:       min(st.Start+end, st.End()),
				Text:      text,
				Words:     wordTexts,
				Highlight: i,
			})
		}
	}
	return cues
}

// clampCues enforces the layer invariant: cues ordered by start never cross.
// Adjacent cues may touch exactly.
func clampCues(cues []Cue) {
	for i := range cues {
		if cues[i].End < cues[i].Start {
			cues[i].End = cues[i].Start
		}
		if i+1 < len(cues) && cues[i].End > cues[i+1].Start {
			cues[i].End = cues[i+1].Start
		}
	}
}
