package timeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"clipforge/internal/media"
	"clipforge/internal/services"
)

// Prober resolves a media source to its duration in seconds. Implementations
// sit at the I/O boundary (ffprobe); tests substitute fakes.
type Prober interface {
	Probe(ctx context.Context, src string) (float64, error)
}

// SceneTiming places one scene on the global timeline.
type SceneTiming struct {
	SceneID  string
	Start    float64
	Duration float64
}

// End returns the scene's exclusive end offset.
func (t SceneTiming) End() float64 { return t.Start + t.Duration }

// ResolvedTiming is the derived placement of every scene. Scene offsets are
// monotonically non-decreasing with no gaps or overlaps, and TotalDuration is
// the sum of scene durations.
type ResolvedTiming struct {
	Scenes        []SceneTiming
	TotalDuration float64
}

// Scene looks up a scene's timing by id.
func (r *ResolvedTiming) Scene(id string) (SceneTiming, bool) {
	for _, st := range r.Scenes {
		if st.SceneID == id {
			return st, true
		}
	}
	return SceneTiming{}, false
}

// ProbeDurations resolves the duration of every distinct audio source in the
// config, fanning out up to maxInFlight probes at once. Duplicate sources are
// probed once. The first failure cancels outstanding probes and is returned.
func ProbeDurations(ctx context.Context, prober Prober, cfg *media.VideoConfig, maxInFlight int) (map[string]float64, error) {
	if maxInFlight < 1 {
		maxInFlight = 1
	}

	var sources []string
	seen := make(map[string]struct{})
	for i := range cfg.Scenes {
		for _, audio := range cfg.Scenes[i].AudioElements() {
			if _, ok := seen[audio.Src]; ok {
				continue
			}
			seen[audio.Src] = struct{}{}
			sources = append(sources, audio.Src)
		}
	}
	if len(sources) == 0 {
		return map[string]float64{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		durations = make(map[string]float64, len(sources))
		failures  = make(map[string]error)
	)
	sem := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup

	for _, src := range sources {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			defer func() { <-sem }()

			duration, err := prober.Probe(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[src] = err
				cancel()
				return
			}
			durations[src] = duration
		}(src)
	}
	wg.Wait()

	// Report the failure of the earliest source in declaration order so the
	// error is stable across runs.
	for _, src := range sources {
		if err, ok := failures[src]; ok {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil && len(durations) < len(sources) {
		return nil, services.Wrap(services.ErrTimeout, "probing", "probe durations", "probing interrupted", err)
	}
	return durations, nil
}

// Resolve computes scene offsets and total duration. Scene duration is the
// sum of the scene's audio element durations, in concatenation order, unless
// the scene declares an explicit override. A scene with neither audio nor an
// override cannot be timed.
func Resolve(cfg *media.VideoConfig, durations map[string]float64) (*ResolvedTiming, error) {
	resolved := &ResolvedTiming{Scenes: make([]SceneTiming, 0, len(cfg.Scenes))}

	var cursor float64
	for i := range cfg.Scenes {
		scene := &cfg.Scenes[i]

		var sceneDuration float64
		switch {
		case scene.Duration > 0:
			sceneDuration = scene.Duration
		default:
			audio := scene.AudioElements()
			if len(audio) == 0 {
				return nil, services.Wrap(services.ErrValidation, "timing", "resolve",
					fmt.Sprintf("scene %q has no audio elements and no explicit duration", scene.ID), ErrAmbiguousDuration)
			}
			for _, el := range audio {
				d, ok := durations[el.Src]
				if !ok {
					return nil, services.Wrap(services.ErrValidation, "timing", "resolve",
						fmt.Sprintf("no probed duration for source %q in scene %q", el.Src, scene.ID), ErrAmbiguousDuration)
				}
				sceneDuration += d
			}
		}

		resolved.Scenes = append(resolved.Scenes, SceneTiming{
			SceneID:  scene.ID,
			Start:    cursor,
			Duration: sceneDuration,
		})
		cursor += sceneDuration
	}

	resolved.TotalDuration = cursor

	if !sort.SliceIsSorted(resolved.Scenes, func(a, b int) bool {
		return resolved.Scenes[a].Start < resolved.Scenes[b].Start
	}) {
		return nil, services.Wrap(services.ErrValidation, "timing", "resolve", "scene offsets are not monotonic", nil)
	}
	return resolved, nil
}
