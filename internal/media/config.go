package media

import (
	"encoding/json"
	"errors"

	"clipforge/internal/services"
)

// Scene is one time-bounded segment of the output video.
type Scene struct {
	ID              string    `json:"id"`
	BackgroundColor string    `json:"background-color"`
	Duration        float64   `json:"duration,omitempty"`
	Elements        []Element `json:"elements"`
}

// AudioElements returns the scene's audio elements in declaration order.
func (s *Scene) AudioElements() []*AudioElement {
	var out []*AudioElement
	for _, el := range s.Elements {
		if el.Kind == KindAudio {
			out = append(out, el.Audio)
		}
	}
	return out
}

// ImageElements returns the scene's image elements in declaration order.
func (s *Scene) ImageElements() []*ImageElement {
	var out []*ImageElement
	for _, el := range s.Elements {
		if el.Kind == KindImage {
			out = append(out, el.Image)
		}
	}
	return out
}

// VideoConfig is the validated, immutable description of one output video.
type VideoConfig struct {
	Comment    string    `json:"comment,omitempty"`
	Resolution string    `json:"resolution"`
	Quality    string    `json:"quality"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Scenes     []Scene   `json:"scenes"`
	Elements   []Element `json:"elements"`
}

// ParseConfig decodes and validates a video configuration document.
func ParseConfig(data []byte) (*VideoConfig, error) {
	cfg := VideoConfig{Resolution: "custom", Quality: "high"}
	if err := json.Unmarshal(data, &cfg); err != nil {
		var svcErr *services.ServiceError
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, services.Wrap(services.ErrValidation, "", "parse config", "invalid JSON", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BackgroundVideo returns the global background video element, or nil.
func (c *VideoConfig) BackgroundVideo() *VideoElement {
	for _, el := range c.Elements {
		if el.Kind == KindVideo {
			return el.Video
		}
	}
	return nil
}

// SubtitleSpec returns the global subtitles element, or nil when subtitles
// are not requested.
func (c *VideoConfig) SubtitleSpec() *SubtitleElement {
	for _, el := range c.Elements {
		if el.Kind == KindSubtitles {
			return el.Subtitles
		}
	}
	return nil
}

// ScenesWithAudio returns the scenes that carry at least one audio element,
// in declaration order.
func (c *VideoConfig) ScenesWithAudio() []*Scene {
	var out []*Scene
	for i := range c.Scenes {
		if len(c.Scenes[i].AudioElements()) > 0 {
			out = append(out, &c.Scenes[i])
		}
	}
	return out
}
