package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Workers bounds the scheduler pool and per-job fan-out concurrency.
type Workers struct {
	JobWorkers        int `toml:"job_workers"`
	QueueDepth        int `toml:"queue_depth"`
	ProbeWorkers      int `toml:"probe_workers"`
	TranscribeWorkers int `toml:"transcribe_workers"`
}

// Timeouts contains per-stage timeouts in seconds for external calls.
type Timeouts struct {
	ProbeSeconds      int `toml:"probe_seconds"`
	TranscribeSeconds int `toml:"transcribe_seconds"`
	EncodeSeconds     int `toml:"encode_seconds"`
}

// Subtitles contains configuration for subtitle generation.
type Subtitles struct {
	Enabled         bool    `toml:"enabled"`
	MaxLineChars    int     `toml:"max_line_chars"`
	MaxLineDuration float64 `toml:"max_line_duration_seconds"`
}

// Encoder contains configuration for the external ffmpeg encoder.
type Encoder struct {
	Binary       string `toml:"binary"`
	ProbeBinary  string `toml:"probe_binary"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	PadSeconds   int    `toml:"pad_seconds"`
	OverlayScale int    `toml:"overlay_scale"`
}

// Whisper contains configuration for the transcription engine.
type Whisper struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
}

// Config is the root configuration for the daemon and CLI.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Workers   Workers   `toml:"workers"`
	Timeouts  Timeouts  `toml:"timeouts"`
	Subtitles Subtitles `toml:"subtitles"`
	Encoder   Encoder   `toml:"encoder"`
	Whisper   Whisper   `toml:"whisper"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// DefaultConfigPath returns the expected location of the user config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "clipforge", "config.toml"), nil
}

// Load reads configuration from path, falling back to the default location.
// A missing file yields the repository defaults. The returned string is the
// path that was consulted.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		resolved = defaultPath
	}
	resolved = expandPath(resolved)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply when no config file exists.
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path unless it already exists.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
