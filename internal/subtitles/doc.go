// Package subtitles maps word-level transcriptions into timed, styled cues
// and renders them as an ASS subtitle document. Classic style groups words
// into line cues; progressive style emits one cue per word so the rendering
// layer can repaint the line with the current word distinguished.
package subtitles
