package media

// Subtitle styles.
const (
	StyleProgressive = "progressive"
	StyleClassic     = "classic"
)

// SubtitleSettings controls subtitle appearance. JSON keys use the hyphenated
// form the public config format has always used.
type SubtitleSettings struct {
	Style        string `json:"style"`
	FontFamily   string `json:"font-family"`
	FontSize     int    `json:"font-size"`
	WordColor    string `json:"word-color"`
	LineColor    string `json:"line-color"`
	ShadowColor  string `json:"shadow-color"`
	ShadowOffset int    `json:"shadow-offset"`
	BoxColor     string `json:"box-color"`
	Position     string `json:"position"`
	OutlineColor string `json:"outline-color"`
	OutlineWidth int    `json:"outline-width"`
}

// DefaultSubtitleSettings returns the styling applied when a subtitles element
// omits fields.
func DefaultSubtitleSettings() SubtitleSettings {
	return SubtitleSettings{
		Style:        StyleProgressive,
		FontFamily:   "Arial",
		FontSize:     24,
		WordColor:    "#FFFFFF",
		LineColor:    "#FFFFFF",
		ShadowColor:  "#000000",
		ShadowOffset: 2,
		BoxColor:     "#000000",
		Position:     "center-top",
		OutlineColor: "#000000",
		OutlineWidth: 3,
	}
}

// Positions maps the nine supported screen anchors. Used by validation and by
// the subtitle renderer's alignment mapping.
var Positions = map[string]struct{}{
	"left-bottom":   {},
	"center-bottom": {},
	"right-bottom":  {},
	"left-center":   {},
	"center-center": {},
	"right-center":  {},
	"left-top":      {},
	"center-top":    {},
	"right-top":     {},
}
