package renderplan

// InputKind classifies a plan input.
type InputKind string

const (
	InputVideo InputKind = "video"
	InputAudio InputKind = "audio"
	InputImage InputKind = "image"
)

// Input is one distinct media source handed to the encoder. Index is the
// input's position in the encoder's argument order.
type Input struct {
	Index int       `json:"index"`
	Kind  InputKind `json:"kind"`
	Src   string    `json:"src"`
	// LoopCount applies to the background video: the number of extra loops
	// needed to cover the full timeline, or -1 for loop-forever when the
	// source duration is unknown.
	LoopCount int `json:"loop_count,omitempty"`
}

// Overlay is one timed image overlay. Active exactly during the owning
// scene's window, positioned at the declared coordinates with no automatic
// centering.
type Overlay struct {
	InputIndex int     `json:"input_index"`
	SceneID    string  `json:"scene_id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	ZIndex     int     `json:"z_index"`
	Scale      int     `json:"scale"`
}

// Background records the transform applied to the background video for the
// full timeline.
type Background struct {
	InputIndex int     `json:"input_index"`
	Volume     float64 `json:"volume"`
	Resize     string  `json:"resize"`
	ZIndex     int     `json:"z_index"`
}

// SubtitleTrack references the rendered subtitle document.
type SubtitleTrack struct {
	Path     string  `json:"path"`
	Position string  `json:"position"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

// Output is the encode target.
type Output struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Preset   string  `json:"preset"`
	CRF      int     `json:"crf"`
	Duration float64 `json:"duration"`
	Path     string  `json:"path"`
}

// Plan is the fully resolved, declarative description handed to the external
// encoder. It is the sole artifact crossing that boundary.
type Plan struct {
	Inputs []Input `json:"inputs"`
	// AudioOrder lists input indices in concatenation order, one entry per
	// audio element occurrence (a reused source repeats its index).
	AudioOrder []int          `json:"audio_order"`
	Background *Background    `json:"background,omitempty"`
	Overlays   []Overlay      `json:"overlays"`
	Subtitles  *SubtitleTrack `json:"subtitles,omitempty"`
	Output     Output         `json:"output"`
	// PadSeconds of silence appended after the final scene's audio.
	PadSeconds float64 `json:"pad_seconds"`
}
