package subtitles

import (
	"fmt"
	"strings"

	"clipforge/internal/media"
)

// ASS alignment numbers for the nine screen anchors (numpad layout).
var alignments = map[string]int{
	"left-bottom":   1,
	"center-bottom": 2,
	"right-bottom":  3,
	"left-center":   4,
	"center-center": 5,
	"right-center":  6,
	"left-top":      7,
	"center-top":    8,
	"right-top":     9,
}

// RenderASS serializes cues into an ASS document styled per settings. The
// output is deterministic for identical inputs.
func RenderASS(cues []Cue, settings media.SubtitleSettings) string {
	var sb strings.Builder

	wordColor := assColor(settings.WordColor)
	lineColor := assColor(settings.LineColor)
	outlineColor := assColor(settings.OutlineColor)
	boxColor := assColor(settings.BoxColor)
	alignment := alignments[settings.Position]
	if alignment == 0 {
		alignment = 2
	}

	sb.WriteString("[Script Info]\n")
	sb.WriteString("Title: Generated Subtitles\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString("YCbCr Matrix: TV.709\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,%s,%s,%s,%s,1,0,0,0,100,100,0,0,1,%d,%d,%d,10,10,20,1\n\n",
		settings.FontFamily, settings.FontSize, wordColor, lineColor, outlineColor, boxColor,
		settings.OutlineWidth, settings.ShadowOffset, alignment)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, cue := range cues {
		if cue.End <= cue.Start {
			continue
		}
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatTime(cue.Start), formatTime(cue.End), dialogueText(cue, wordColor, lineColor))
	}
	return sb.String()
}

// dialogueText renders a cue's display text. Progressive cues repaint the
// whole line with the highlighted word in the word color and the rest in the
// line color.
func dialogueText(cue Cue, wordColor, lineColor string) string {
	if cue.Highlight < 0 || cue.Highlight >= len(cue.Words) {
		return escapeText(cue.Text)
	}
	parts := make([]string, len(cue.Words))
	for i, word := range cue.Words {
		escaped := escapeText(word)
		if i == cue.Highlight {
			parts[i] = fmt.Sprintf("{\\c%s&}%s{\\c%s&}", wordColor, escaped, lineColor)
		} else {
			parts[i] = escaped
		}
	}
	return strings.Join(parts, " ")
}

// assColor converts #RRGGBB into the &H00BBGGRR form ASS expects. Invalid
// input falls back to white.
func assColor(hex string) string {
	if len(hex) == 7 && hex[0] == '#' {
		r, g, b := hex[1:3], hex[3:5], hex[5:7]
		return fmt.Sprintf("&H00%s%s%s", b, g, r)
	}
	return "&H00FFFFFF"
}

// formatTime renders seconds as H:MM:SS.CC, centisecond precision.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(seconds*100 + 0.5)
	h := centis / 360000
	m := centis / 6000 % 60
	s := centis / 100 % 60
	c := centis % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
}

// escapeText neutralizes characters that carry meaning in ASS dialogue.
func escapeText(text string) string {
	replacer := strings.NewReplacer(
		"\n", "\\N",
		"{", "\\{",
		"}", "\\}",
		"|", "\\h",
	)
	return strings.Join(strings.Fields(replacer.Replace(text)), " ")
}
