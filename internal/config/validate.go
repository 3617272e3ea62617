package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorkers() error {
	if c.Workers.JobWorkers > 64 {
		return fmt.Errorf("workers.job_workers %d is unreasonably high (max 64)", c.Workers.JobWorkers)
	}
	if c.Workers.QueueDepth > 4096 {
		return fmt.Errorf("workers.queue_depth %d is unreasonably high (max 4096)", c.Workers.QueueDepth)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Timeouts.ProbeSeconds > 3600 || c.Timeouts.TranscribeSeconds > 7200 || c.Timeouts.EncodeSeconds > 14400 {
		return errors.New("timeouts exceed sane upper bounds; check the [timeouts] section")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxLineChars > 200 {
		return fmt.Errorf("subtitles.max_line_chars %d out of range (max 200)", c.Subtitles.MaxLineChars)
	}
	if c.Subtitles.MaxLineDuration > 30 {
		return fmt.Errorf("subtitles.max_line_duration_seconds %.1f out of range (max 30)", c.Subtitles.MaxLineDuration)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return fmt.Errorf("encoder.crf %d out of range (0-51)", c.Encoder.CRF)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}
