package renderplan

import (
	"math"
	"sort"

	"clipforge/internal/media"
	"clipforge/internal/services"
	"clipforge/internal/subtitles"
	"clipforge/internal/timeline"
)

// Options carries the encoder knobs the plan bakes in.
type Options struct {
	Preset       string
	CRF          int
	PadSeconds   float64
	OverlayScale int
	OutputPath   string
	SubtitlePath string
}

// Build assembles the render plan in a single deterministic pass. It performs
// no I/O and is a pure function of its inputs: identical arguments always
// produce an identical plan.
func Build(cfg *media.VideoConfig, timing *timeline.ResolvedTiming, cues []subtitles.Cue, opts Options) (*Plan, error) {
	if len(timing.Scenes) != len(cfg.Scenes) {
		return nil, services.Wrap(services.ErrValidation, "planning", "build",
			"timing does not cover every scene", nil)
	}

	plan := &Plan{
		PadSeconds: opts.PadSeconds,
		Output: Output{
			Width:    cfg.Width,
			Height:   cfg.Height,
			Preset:   opts.Preset,
			CRF:      opts.CRF,
			Duration: timing.TotalDuration + opts.PadSeconds,
			Path:     opts.OutputPath,
		},
	}

	indexBySrc := make(map[string]int)
	addInput := func(kind InputKind, src string, loops int) int {
		if idx, ok := indexBySrc[src]; ok {
			return idx
		}
		idx := len(plan.Inputs)
		plan.Inputs = append(plan.Inputs, Input{Index: idx, Kind: kind, Src: src, LoopCount: loops})
		indexBySrc[src] = idx
		return idx
	}

	// Background video first, then scenes in declaration order with each
	// scene's audio before its images.
	if bg := cfg.BackgroundVideo(); bg != nil {
		idx := addInput(InputVideo, bg.Src, loopCount(bg.Duration, plan.Output.Duration))
		plan.Background = &Background{
			InputIndex: idx,
			Volume:     bg.Volume,
			Resize:     bg.Resize,
			ZIndex:     bg.ZIndex,
		}
	}

	for i := range cfg.Scenes {
		scene := &cfg.Scenes[i]
		window := timing.Scenes[i]

		for _, audio := range scene.AudioElements() {
			idx := addInput(InputAudio, audio.Src, 0)
			plan.AudioOrder = append(plan.AudioOrder, idx)
		}
		for _, image := range scene.ImageElements() {
			idx := addInput(InputImage, image.Src, 0)
			plan.Overlays = append(plan.Overlays, Overlay{
				InputIndex: idx,
				SceneID:    scene.ID,
				Start:      window.Start,
				End:        window.End(),
				X:          image.X,
				Y:          image.Y,
				ZIndex:     image.ZIndex,
				Scale:      opts.OverlayScale,
			})
		}
	}

	// Z-order by declared z_index; ties keep declaration order.
	sort.SliceStable(plan.Overlays, func(a, b int) bool {
		return plan.Overlays[a].ZIndex < plan.Overlays[b].ZIndex
	})

	if spec := cfg.SubtitleSpec(); spec != nil && len(cues) > 0 {
		plan.Subtitles = &SubtitleTrack{
			Path:     opts.SubtitlePath,
			Position: spec.Settings.Position,
			Start:    cues[0].Start,
			End:      cues[len(cues)-1].End,
		}
	}

	return plan, nil
}

// loopCount computes how many times the background video must repeat to cover
// the timeline. An unknown source duration falls back to loop-forever.
func loopCount(sourceDuration, totalDuration float64) int {
	if sourceDuration <= 0 {
		return -1
	}
	return int(math.Floor(totalDuration/sourceDuration)) + 1
}
