// Package ffprobe implements the duration prober on top of the ffprobe CLI.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/services"
)

// Service probes media sources for their duration.
type Service struct {
	binary        string
	timeout       time.Duration
	commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a prober using the given ffprobe binary and per-probe
// timeout.
func NewService(binary string, timeout time.Duration) *Service {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Service{binary: binary, timeout: timeout}
}

// WithCommandOutput sets a custom command executor (for testing).
func (s *Service) WithCommandOutput(fn func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandOutput = fn
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns the source's duration in seconds.
func (s *Service) Probe(ctx context.Context, src string) (float64, error) {
	if strings.TrimSpace(src) == "" {
		return 0, services.Wrap(services.ErrValidation, "probing", "ffprobe", "source path required", nil)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-protocol_whitelist", "file,http,https,tcp,tls",
		src,
	}
	output, err := s.output(ctx, s.binary, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, services.Wrap(services.ErrTimeout, "probing", "ffprobe",
				fmt.Sprintf("probe of %s timed out after %s", src, s.timeout), err)
		}
		return 0, services.Wrap(services.ErrFetch, "probing", "ffprobe",
			fmt.Sprintf("probe of %s failed", src), err)
	}

	var parsed probeFormat
	if err := json.Unmarshal(output, &parsed); err != nil {
		return 0, services.Wrap(services.ErrFetch, "probing", "ffprobe",
			fmt.Sprintf("unreadable probe output for %s", src), err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	if err != nil || duration <= 0 {
		return 0, services.Wrap(services.ErrFetch, "probing", "ffprobe",
			fmt.Sprintf("no duration reported for %s", src), err)
	}
	return duration, nil
}

func (s *Service) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandOutput != nil {
		return s.commandOutput(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
