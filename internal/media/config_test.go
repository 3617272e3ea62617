package media

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"clipforge/internal/services"
)

const sampleConfig = `{
  "width": 1080,
  "height": 1920,
  "elements": [
    {"type": "video", "src": "https://cdn.example.com/bg.mp4", "volume": 0.2},
    {"type": "subtitles", "settings": {"style": "progressive", "position": "center-bottom"}}
  ],
  "scenes": [
    {
      "id": "intro",
      "background-color": "#000000",
      "elements": [
        {"type": "audio", "src": "https://cdn.example.com/intro.mp3"},
        {"type": "image", "src": "https://cdn.example.com/logo.png", "x": 100, "y": 200}
      ]
    },
    {
      "id": "outro",
      "elements": [
        {"type": "audio", "src": "https://cdn.example.com/outro.mp3"}
      ]
    }
  ]
}`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Width != 1080 || cfg.Height != 1920 {
		t.Fatalf("dimensions = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Resolution != "custom" || cfg.Quality != "high" {
		t.Fatalf("defaults not applied: %q %q", cfg.Resolution, cfg.Quality)
	}

	bg := cfg.BackgroundVideo()
	if bg == nil {
		t.Fatal("background video not found")
	}
	if bg.Volume != 0.2 {
		t.Fatalf("explicit volume lost: %v", bg.Volume)
	}
	if bg.ZIndex != -1 || bg.Resize != "fit" {
		t.Fatalf("video defaults not applied: z=%d resize=%q", bg.ZIndex, bg.Resize)
	}

	subs := cfg.SubtitleSpec()
	if subs == nil {
		t.Fatal("subtitles element not found")
	}
	if subs.Settings.Position != "center-bottom" {
		t.Fatalf("position = %q", subs.Settings.Position)
	}
	if subs.Settings.FontFamily != "Arial" || subs.Settings.FontSize != 24 {
		t.Fatalf("subtitle defaults not applied: %+v", subs.Settings)
	}
	if subs.Language != "en" {
		t.Fatalf("language default not applied: %q", subs.Language)
	}

	intro := cfg.Scenes[0]
	if len(intro.AudioElements()) != 1 || len(intro.ImageElements()) != 1 {
		t.Fatalf("element accessors wrong: %+v", intro.Elements)
	}
	if got := len(cfg.ScenesWithAudio()); got != 2 {
		t.Fatalf("ScenesWithAudio = %d", got)
	}
}

func TestParseConfigRejectsUnknownElementType(t *testing.T) {
	doc := strings.Replace(sampleConfig, `"type": "image"`, `"type": "sticker"`, 1)
	_, err := ParseConfig([]byte(doc))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "sticker") {
		t.Fatalf("error should name the offending type: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*VideoConfig)
		want   string
	}{
		{"tiny width", func(c *VideoConfig) { c.Width = 10 }, "width"},
		{"no scenes", func(c *VideoConfig) { c.Scenes = nil }, "scene"},
		{"duplicate scene id", func(c *VideoConfig) { c.Scenes[1].ID = "intro" }, "duplicate"},
		{"blank scene id", func(c *VideoConfig) { c.Scenes[0].ID = " " }, "no id"},
		{"negative override", func(c *VideoConfig) { c.Scenes[0].Duration = -1 }, "negative"},
		{"bad style", func(c *VideoConfig) { c.SubtitleSpec().Settings.Style = "karaoke" }, "style"},
		{"bad position", func(c *VideoConfig) { c.SubtitleSpec().Settings.Position = "middle" }, "position"},
		{"bad color", func(c *VideoConfig) { c.SubtitleSpec().Settings.WordColor = "white" }, "RRGGBB"},
		{"double background", func(c *VideoConfig) {
			c.Elements = append(c.Elements, Element{Kind: KindVideo, Video: &VideoElement{Src: "x.mp4"}})
		}, "more than one"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(sampleConfig))
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q missing %q", err.Error(), tc.want)
			}
		})
	}
}

func TestElementRoundTrip(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if again.BackgroundVideo() == nil || again.SubtitleSpec() == nil {
		t.Fatal("round trip lost global elements")
	}
	if len(again.Scenes[0].ImageElements()) != 1 {
		t.Fatal("round trip lost scene elements")
	}
}
