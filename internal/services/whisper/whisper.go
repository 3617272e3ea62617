// Package whisper implements the transcriber on top of a whisper CLI that
// emits word-level timestamps as JSON.
package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/services"
	"clipforge/internal/subtitles"
)

// Service transcribes audio sources to word-level timestamped text.
type Service struct {
	binary        string
	model         string
	timeout       time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcriber using the given whisper binary and model.
func NewService(binary, model string, timeout time.Duration) *Service {
	if binary == "" {
		binary = "whisper"
	}
	if model == "" {
		model = "medium"
	}
	return &Service{binary: binary, model: model, timeout: timeout}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.model }

type whisperOutput struct {
	Segments []struct {
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
}

// Transcribe runs whisper against the source and returns its words on the
// audio's local clock. outputDir receives the tool's JSON artifact.
func (s *Service) Transcribe(ctx context.Context, src, outputDir, language string) ([]subtitles.Word, error) {
	if strings.TrimSpace(src) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribing", "whisper", "source path required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribing", "whisper", "ensure output dir", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{
		src,
		"--model", s.model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--word_timestamps", "True",
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	if err := s.run(ctx, s.binary, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "transcribing", "whisper",
				fmt.Sprintf("transcription of %s timed out after %s", src, s.timeout), err)
		}
		return nil, services.Wrap(services.ErrTranscription, "transcribing", "whisper",
			fmt.Sprintf("transcription of %s failed", src), err)
	}

	jsonPath := filepath.Join(outputDir, baseName(src)+".json")
	words, err := loadWords(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribing", "whisper",
			fmt.Sprintf("unreadable transcription output for %s", src), err)
	}
	return words, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func baseName(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadWords(jsonPath string) ([]subtitles.Word, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var parsed whisperOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	var words []subtitles.Word
	for _, segment := range parsed.Segments {
		for _, w := range segment.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			words = append(words, subtitles.Word{Text: text, Start: w.Start, End: w.End})
		}
	}
	return words, nil
}
