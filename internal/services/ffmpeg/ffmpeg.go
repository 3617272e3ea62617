// Package ffmpeg serializes render plans into ffmpeg invocations and runs
// them. Argument generation is separated from execution so tests can assert
// on the command without spawning the encoder.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/renderplan"
	"clipforge/internal/services"
)

// Service runs the external encoder.
type Service struct {
	binary        string
	timeout       time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an encoder client for the given ffmpeg binary.
func NewService(binary string, timeout time.Duration) *Service {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Service{binary: binary, timeout: timeout}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// BuildArgs translates a render plan into the encoder's argument list. Pure
// and deterministic: identical plans yield identical argument slices.
func BuildArgs(plan *renderplan.Plan) ([]string, error) {
	if plan == nil || len(plan.Inputs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "encoding", "build args", "plan has no inputs", nil)
	}
	if plan.Output.Path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "encoding", "build args", "plan has no output path", nil)
	}

	args := []string{"-y", "-protocol_whitelist", "file,http,https,tcp,tls"}

	for _, input := range plan.Inputs {
		if input.Kind == renderplan.InputVideo && input.LoopCount != 0 {
			args = append(args, "-stream_loop", strconv.Itoa(input.LoopCount))
		}
		args = append(args, "-i", input.Src)
	}

	var filters []string
	audioMap := buildAudioFilters(&filters, plan)
	videoStream := buildOverlayFilters(&filters, plan)
	if plan.Subtitles != nil && plan.Subtitles.Path != "" {
		next := "subtitled"
		filters = append(filters, fmt.Sprintf("[%s]ass=%s[%s]", videoStream, plan.Subtitles.Path, next))
		videoStream = next
	}

	if len(filters) > 0 {
		args = append(args, "-filter_complex", strings.Join(filters, ";"))
	}
	if videoStream == "0:v" {
		args = append(args, "-map", "0:v")
	} else {
		args = append(args, "-map", "["+videoStream+"]")
	}
	args = append(args, "-map", audioMap)

	args = append(args,
		"-c:v", "libx264",
		"-preset", plan.Output.Preset,
		"-crf", strconv.Itoa(plan.Output.CRF),
		"-s", fmt.Sprintf("%dx%d", plan.Output.Width, plan.Output.Height),
		"-t", formatSeconds(plan.Output.Duration),
		plan.Output.Path,
	)
	return args, nil
}

// buildAudioFilters emits the concat and pad chain and returns the stream to
// map as audio output.
func buildAudioFilters(filters *[]string, plan *renderplan.Plan) string {
	pad := formatSeconds(plan.PadSeconds)
	switch len(plan.AudioOrder) {
	case 0:
		return "0:a"
	case 1:
		*filters = append(*filters, fmt.Sprintf("[%d:a]apad=pad_dur=%s[final_audio]", plan.AudioOrder[0], pad))
		return "[final_audio]"
	default:
		var labels strings.Builder
		for _, idx := range plan.AudioOrder {
			fmt.Fprintf(&labels, "[%d:a]", idx)
		}
		*filters = append(*filters,
			fmt.Sprintf("%sconcat=n=%d:v=0:a=1[concatenated_audio]", labels.String(), len(plan.AudioOrder)),
			fmt.Sprintf("[concatenated_audio]apad=pad_dur=%s[final_audio]", pad))
		return "[final_audio]"
	}
}

// buildOverlayFilters scales and applies each overlay in the plan's z-order
// and returns the final video stream label.
func buildOverlayFilters(filters *[]string, plan *renderplan.Plan) string {
	current := "0:v"
	for i, overlay := range plan.Overlays {
		scaled := fmt.Sprintf("scaled_img_%d", i)
		*filters = append(*filters, fmt.Sprintf("[%d:v]scale=%d:%d[%s]",
			overlay.InputIndex, overlay.Scale, overlay.Scale, scaled))

		next := fmt.Sprintf("overlay_%d", i)
		*filters = append(*filters, fmt.Sprintf(`[%s][%s]overlay=%d:%d:enable=between(t\,%s\,%s)[%s]`,
			current, scaled, overlay.X, overlay.Y,
			formatSeconds(overlay.Start), formatSeconds(overlay.End), next))
		current = next
	}
	return current
}

// Encode runs the encoder against the plan and returns the output path.
func (s *Service) Encode(ctx context.Context, plan *renderplan.Plan) (string, error) {
	args, err := BuildArgs(plan)
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.run(ctx, s.binary, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "encoding", "ffmpeg",
				fmt.Sprintf("encode timed out after %s", s.timeout), err)
		}
		return "", services.Wrap(services.ErrEncoding, "encoding", "ffmpeg", "encoder exited abnormally", err)
	}
	return plan.Output.Path, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output)))
	}
	return nil
}

// tail keeps error output readable; ffmpeg logs the useful part last.
func tail(output string) string {
	output = strings.TrimSpace(output)
	const max = 800
	if len(output) > max {
		return "..." + output[len(output)-max:]
	}
	return output
}

// formatSeconds renders a duration without trailing zeros so generated
// commands stay stable and readable.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
