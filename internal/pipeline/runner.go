package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"clipforge/internal/config"
	"clipforge/internal/jobs"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/renderplan"
	"clipforge/internal/services"
	"clipforge/internal/subtitles"
	"clipforge/internal/timeline"
)

// Progress milestones published per stage.
const (
	ProgressProbing     = 10
	ProgressTimed       = 20
	ProgressTranscribed = 30
	ProgressCues        = 50
	ProgressPlanned     = 60
	ProgressEncoding    = 70
	ProgressEncoded     = 95
)

// Transcriber converts one audio source into word-level timestamps on the
// audio's local clock.
type Transcriber interface {
	Transcribe(ctx context.Context, src, outputDir, language string) ([]subtitles.Word, error)
}

// Encoder consumes a render plan and produces the output file.
type Encoder interface {
	Encode(ctx context.Context, plan *renderplan.Plan) (string, error)
}

// ProgressSink receives stage progress. *jobs.Store satisfies it.
type ProgressSink interface {
	UpdateProgress(ctx context.Context, id string, progress int, step string) error
}

// Runner executes one job's stage sequence: probe, transcribe, build cues,
// build plan, encode, finalize. Cancellation is checked between stages;
// per-stage timeouts live in the collaborator clients.
type Runner struct {
	cfg         *config.Config
	progress    ProgressSink
	prober      timeline.Prober
	transcriber Transcriber
	encoder     Encoder
	logger      *slog.Logger
}

// NewRunner wires the pipeline to its collaborators.
func NewRunner(cfg *config.Config, progress ProgressSink, prober timeline.Prober, transcriber Transcriber, encoder Encoder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:         cfg,
		progress:    progress,
		prober:      prober,
		transcriber: transcriber,
		encoder:     encoder,
		logger:      logging.WithComponent(logger, "pipeline"),
	}
}

// Run executes the pipeline for one job and returns the output path.
func (r *Runner) Run(ctx context.Context, job *jobs.Job) (string, error) {
	logger := r.logger.With(logging.String(logging.FieldJobID, job.ID))

	videoCfg, err := media.ParseConfig([]byte(job.ConfigJSON))
	if err != nil {
		return "", err
	}

	// Stage: probe durations.
	if err := r.advance(ctx, job.ID, ProgressProbing, "probing durations", logger); err != nil {
		return "", err
	}
	durations, err := timeline.ProbeDurations(ctx, r.prober, videoCfg, r.cfg.Workers.ProbeWorkers)
	if err != nil {
		return "", err
	}
	timing, err := timeline.Resolve(videoCfg, durations)
	if err != nil {
		return "", err
	}
	if err := r.advance(ctx, job.ID, ProgressTimed, "timeline resolved", logger); err != nil {
		return "", err
	}
	logger.Info("timeline resolved",
		logging.Int("scenes", len(timing.Scenes)),
		logging.Float64("total_seconds", timing.TotalDuration))

	// Stages: transcribe and build cues, skipped when subtitles are off.
	var cues []subtitles.Cue
	subtitlePath := ""
	spec := videoCfg.SubtitleSpec()
	if r.cfg.Subtitles.Enabled && spec != nil {
		if err := r.advance(ctx, job.ID, ProgressTranscribed, "transcribing audio", logger); err != nil {
			return "", err
		}
		transcripts, err := r.transcribeScenes(ctx, job.ID, videoCfg, durations, spec.Language)
		if err != nil {
			return "", err
		}

		if err := r.advance(ctx, job.ID, ProgressCues, "building subtitle cues", logger); err != nil {
			return "", err
		}
		cues, err = subtitles.BuildCues(transcripts, timing, spec.Settings, subtitles.Options{
			MaxLineChars:    r.cfg.Subtitles.MaxLineChars,
			MaxLineDuration: r.cfg.Subtitles.MaxLineDuration,
		})
		if err != nil {
			return "", err
		}
		if len(cues) > 0 {
			subtitlePath = filepath.Join(r.workDir(job.ID), "subtitles.ass")
			if err := r.writeSubtitles(subtitlePath, cues, spec.Settings); err != nil {
				return "", err
			}
		}
	}

	// Stage: build render plan.
	if err := r.advance(ctx, job.ID, ProgressPlanned, "building render plan", logger); err != nil {
		return "", err
	}
	plan, err := renderplan.Build(videoCfg, timing, cues, renderplan.Options{
		Preset:       r.cfg.Encoder.Preset,
		CRF:          r.cfg.Encoder.CRF,
		PadSeconds:   float64(r.cfg.Encoder.PadSeconds),
		OverlayScale: r.cfg.Encoder.OverlayScale,
		OutputPath:   filepath.Join(r.cfg.Paths.OutputDir, job.ID+".mp4"),
		SubtitlePath: subtitlePath,
	})
	if err != nil {
		return "", err
	}

	// Stage: encode.
	if err := r.advance(ctx, job.ID, ProgressEncoding, "encoding video", logger); err != nil {
		return "", err
	}
	outputPath, err := r.encoder.Encode(ctx, plan)
	if err != nil {
		return "", err
	}
	if err := r.advance(ctx, job.ID, ProgressEncoded, "encoded", logger); err != nil {
		return "", err
	}

	// Finalize: stage-local scratch is no longer needed.
	r.cleanupWorkDir(job.ID, logger)
	return outputPath, nil
}

// advance is the cancellation checkpoint between stages. It stops before
// publishing the next milestone when the job has been cancelled.
func (r *Runner) advance(ctx context.Context, jobID string, progress int, step string, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		r.cleanupWorkDir(jobID, logger)
		return err
	}
	if err := r.progress.UpdateProgress(ctx, jobID, progress, step); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	logger.Debug("stage milestone", logging.Int("progress", progress), logging.String(logging.FieldStage, step))
	return nil
}

// transcribeScenes fans out one transcription per scene with audio, bounded
// by the configured limit. Words from a scene's later audio elements are
// shifted by the duration of the elements before them so the whole scene
// shares one local clock.
func (r *Runner) transcribeScenes(ctx context.Context, jobID string, videoCfg *media.VideoConfig, durations map[string]float64, language string) ([]subtitles.SceneTranscript, error) {
	scenes := videoCfg.ScenesWithAudio()
	if len(scenes) == 0 {
		return nil, nil
	}

	maxInFlight := r.cfg.Workers.TranscribeWorkers
	if maxInFlight < 1 {
		maxInFlight = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu          sync.Mutex
		transcripts = make(map[string]subtitles.SceneTranscript, len(scenes))
		failures    = make(map[string]error)
		wg          sync.WaitGroup
	)
	sem := make(chan struct{}, maxInFlight)

	for _, scene := range scenes {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(scene *media.Scene) {
			defer wg.Done()
			defer func() { <-sem }()

			transcript, err := r.transcribeScene(ctx, jobID, scene, durations, language)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[scene.ID] = err
				cancel()
				return
			}
			transcripts[scene.ID] = transcript
		}(scene)
	}
	wg.Wait()

	for _, scene := range scenes {
		if err, ok := failures[scene.ID]; ok {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil && len(transcripts) < len(scenes) {
		return nil, err
	}

	out := make([]subtitles.SceneTranscript, 0, len(scenes))
	for _, scene := range scenes {
		out = append(out, transcripts[scene.ID])
	}
	return out, nil
}

func (r *Runner) transcribeScene(ctx context.Context, jobID string, scene *media.Scene, durations map[string]float64, language string) (subtitles.SceneTranscript, error) {
	transcript := subtitles.SceneTranscript{SceneID: scene.ID}
	outputDir := filepath.Join(r.workDir(jobID), "transcripts", scene.ID)

	var offset float64
	for _, audio := range scene.AudioElements() {
		words, err := r.transcriber.Transcribe(ctx, audio.Src, outputDir, language)
		if err != nil {
			return transcript, err
		}
		for _, w := range words {
			w.Start += offset
			w.End += offset
			transcript.Words = append(transcript.Words, w)
		}
		offset += durations[audio.Src]
	}
	return transcript, nil
}

func (r *Runner) writeSubtitles(path string, cues []subtitles.Cue, settings media.SubtitleSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "cues", "write subtitles", "ensure work directory", err)
	}
	doc := subtitles.RenderASS(cues, settings)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "cues", "write subtitles", "write subtitle file", err)
	}
	return nil
}

func (r *Runner) workDir(jobID string) string {
	return filepath.Join(r.cfg.Paths.WorkDir, jobID)
}

func (r *Runner) cleanupWorkDir(jobID string, logger *slog.Logger) {
	dir := r.workDir(jobID)
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("failed to remove work directory", logging.String("dir", dir), logging.Error(err))
	}
}
