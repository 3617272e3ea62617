package config

import "strings"

// normalize fills blanks with defaults and expands home-relative paths so the
// rest of the codebase never sees a "~" prefix.
func (c *Config) normalize() {
	defaults := Default()

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaults.Paths.OutputDir
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaults.Paths.WorkDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaults.Paths.LogDir
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaults.Paths.APIBind
	}
	c.Paths.OutputDir = expandPath(c.Paths.OutputDir)
	c.Paths.WorkDir = expandPath(c.Paths.WorkDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)

	if c.Workers.JobWorkers <= 0 {
		c.Workers.JobWorkers = defaults.Workers.JobWorkers
	}
	if c.Workers.QueueDepth <= 0 {
		c.Workers.QueueDepth = defaults.Workers.QueueDepth
	}
	if c.Workers.ProbeWorkers <= 0 {
		c.Workers.ProbeWorkers = defaults.Workers.ProbeWorkers
	}
	if c.Workers.TranscribeWorkers <= 0 {
		c.Workers.TranscribeWorkers = defaults.Workers.TranscribeWorkers
	}

	if c.Timeouts.ProbeSeconds <= 0 {
		c.Timeouts.ProbeSeconds = defaults.Timeouts.ProbeSeconds
	}
	if c.Timeouts.TranscribeSeconds <= 0 {
		c.Timeouts.TranscribeSeconds = defaults.Timeouts.TranscribeSeconds
	}
	if c.Timeouts.EncodeSeconds <= 0 {
		c.Timeouts.EncodeSeconds = defaults.Timeouts.EncodeSeconds
	}

	if c.Subtitles.MaxLineChars <= 0 {
		c.Subtitles.MaxLineChars = defaults.Subtitles.MaxLineChars
	}
	if c.Subtitles.MaxLineDuration <= 0 {
		c.Subtitles.MaxLineDuration = defaults.Subtitles.MaxLineDuration
	}

	if strings.TrimSpace(c.Encoder.Binary) == "" {
		c.Encoder.Binary = defaults.Encoder.Binary
	}
	if strings.TrimSpace(c.Encoder.ProbeBinary) == "" {
		c.Encoder.ProbeBinary = defaults.Encoder.ProbeBinary
	}
	if strings.TrimSpace(c.Encoder.Preset) == "" {
		c.Encoder.Preset = defaults.Encoder.Preset
	}
	if c.Encoder.CRF <= 0 {
		c.Encoder.CRF = defaults.Encoder.CRF
	}
	if c.Encoder.PadSeconds < 0 {
		c.Encoder.PadSeconds = defaults.Encoder.PadSeconds
	}
	if c.Encoder.OverlayScale <= 0 {
		c.Encoder.OverlayScale = defaults.Encoder.OverlayScale
	}

	if strings.TrimSpace(c.Whisper.Binary) == "" {
		c.Whisper.Binary = defaults.Whisper.Binary
	}
	if strings.TrimSpace(c.Whisper.Model) == "" {
		c.Whisper.Model = defaults.Whisper.Model
	}

	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaults.LogLevel
	}
	if strings.TrimSpace(c.LogFormat) == "" {
		c.LogFormat = defaults.LogFormat
	}
}
