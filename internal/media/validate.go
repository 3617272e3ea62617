package media

import (
	"fmt"
	"strconv"
	"strings"

	"clipforge/internal/services"
)

// Validate checks structural invariants of a parsed configuration. A config
// that passes here can be scheduled; timing errors (a scene that cannot be
// given a duration) surface later in the pipeline.
func (c *VideoConfig) Validate() error {
	if c.Width < 100 || c.Width > 4000 {
		return validationError(fmt.Sprintf("width %d out of range (100-4000)", c.Width))
	}
	if c.Height < 100 || c.Height > 4000 {
		return validationError(fmt.Sprintf("height %d out of range (100-4000)", c.Height))
	}
	if len(c.Scenes) == 0 {
		return validationError("at least one scene is required")
	}

	seen := make(map[string]struct{}, len(c.Scenes))
	for i := range c.Scenes {
		scene := &c.Scenes[i]
		if strings.TrimSpace(scene.ID) == "" {
			return validationError(fmt.Sprintf("scene %d has no id", i))
		}
		if _, dup := seen[scene.ID]; dup {
			return validationError(fmt.Sprintf("duplicate scene id %q", scene.ID))
		}
		seen[scene.ID] = struct{}{}

		if scene.Duration < 0 {
			return validationError(fmt.Sprintf("scene %q has negative duration", scene.ID))
		}
		for _, el := range scene.Elements {
			switch el.Kind {
			case KindAudio:
				if strings.TrimSpace(el.Audio.Src) == "" {
					return validationError(fmt.Sprintf("scene %q has an audio element without src", scene.ID))
				}
			case KindImage:
				if strings.TrimSpace(el.Image.Src) == "" {
					return validationError(fmt.Sprintf("scene %q has an image element without src", scene.ID))
				}
				if el.Image.X < 0 || el.Image.Y < 0 {
					return validationError(fmt.Sprintf("scene %q image position must be non-negative", scene.ID))
				}
			case KindVideo, KindSubtitles:
				return validationError(fmt.Sprintf("scene %q carries a global-only %s element", scene.ID, el.Kind))
			}
		}
	}

	var sawVideo, sawSubtitles bool
	for _, el := range c.Elements {
		switch el.Kind {
		case KindVideo:
			if sawVideo {
				return validationError("more than one background video element")
			}
			sawVideo = true
			if strings.TrimSpace(el.Video.Src) == "" {
				return validationError("background video element has no src")
			}
		case KindSubtitles:
			if sawSubtitles {
				return validationError("more than one subtitles element")
			}
			sawSubtitles = true
			if err := el.Subtitles.Settings.validate(); err != nil {
				return err
			}
		case KindAudio, KindImage:
			return validationError(fmt.Sprintf("global element list carries a scene-only %s element", el.Kind))
		}
	}
	return nil
}

func (s *SubtitleSettings) validate() error {
	switch s.Style {
	case StyleProgressive, StyleClassic:
	default:
		return validationError(fmt.Sprintf("subtitle style must be %s or %s, got %q", StyleProgressive, StyleClassic, s.Style))
	}
	if s.FontSize < 10 || s.FontSize > 200 {
		return validationError(fmt.Sprintf("subtitle font-size %d out of range (10-200)", s.FontSize))
	}
	if s.OutlineWidth < 0 || s.OutlineWidth > 10 {
		return validationError(fmt.Sprintf("subtitle outline-width %d out of range (0-10)", s.OutlineWidth))
	}
	if s.ShadowOffset < 0 || s.ShadowOffset > 10 {
		return validationError(fmt.Sprintf("subtitle shadow-offset %d out of range (0-10)", s.ShadowOffset))
	}
	if _, ok := Positions[s.Position]; !ok {
		return validationError(fmt.Sprintf("subtitle position %q is not one of the nine anchors", s.Position))
	}
	for name, value := range map[string]string{
		"word-color":    s.WordColor,
		"line-color":    s.LineColor,
		"outline-color": s.OutlineColor,
		"box-color":     s.BoxColor,
		"shadow-color":  s.ShadowColor,
	} {
		if !validHexColor(value) {
			return validationError(fmt.Sprintf("subtitle %s %q is not #RRGGBB", name, value))
		}
	}
	return nil
}

func validHexColor(color string) bool {
	if len(color) != 7 || color[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(color[1:], 16, 32)
	return err == nil
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "", "validate config", message, nil)
}
