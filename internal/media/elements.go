package media

import (
	"encoding/json"
	"fmt"

	"clipforge/internal/services"
)

// ElementKind discriminates the element variants carried in config element
// lists. The set is closed; consumers switch exhaustively on it.
type ElementKind string

const (
	KindVideo     ElementKind = "video"
	KindSubtitles ElementKind = "subtitles"
	KindAudio     ElementKind = "audio"
	KindImage     ElementKind = "image"
)

// VideoElement is the global background video.
type VideoElement struct {
	Src      string  `json:"src"`
	ZIndex   int     `json:"z-index"`
	Volume   float64 `json:"volume"`
	Resize   string  `json:"resize"`
	Duration float64 `json:"duration,omitempty"`
}

// SubtitleElement enables auto-generated subtitles for the whole video.
type SubtitleElement struct {
	ID       string           `json:"id,omitempty"`
	Settings SubtitleSettings `json:"settings"`
	Language string           `json:"language"`
}

// AudioElement is a scene's narration track. A scene's duration is the sum of
// its audio element durations unless the scene declares an override.
type AudioElement struct {
	Src string `json:"src"`
}

// ImageElement is a timed still overlay shown for its scene's full window.
type ImageElement struct {
	Src    string `json:"src"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	ZIndex int    `json:"z-index"`
}

// Element is the closed tagged union over the four variants. Exactly one of
// the pointer fields is set, matching Kind.
type Element struct {
	Kind      ElementKind
	Video     *VideoElement
	Subtitles *SubtitleElement
	Audio     *AudioElement
	Image     *ImageElement
}

type elementProbe struct {
	Type string `json:"type"`
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var probe elementProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return services.Wrap(services.ErrValidation, "", "parse element", "element is not an object", err)
	}

	switch ElementKind(probe.Type) {
	case KindVideo:
		video := VideoElement{ZIndex: -1, Volume: 0.5, Resize: "fit"}
		if err := json.Unmarshal(data, &video); err != nil {
			return services.Wrap(services.ErrValidation, "", "parse element", "invalid video element", err)
		}
		e.Kind, e.Video = KindVideo, &video
	case KindSubtitles:
		subs := SubtitleElement{Settings: DefaultSubtitleSettings(), Language: "en"}
		if err := json.Unmarshal(data, &subs); err != nil {
			return services.Wrap(services.ErrValidation, "", "parse element", "invalid subtitles element", err)
		}
		e.Kind, e.Subtitles = KindSubtitles, &subs
	case KindAudio:
		var audio AudioElement
		if err := json.Unmarshal(data, &audio); err != nil {
			return services.Wrap(services.ErrValidation, "", "parse element", "invalid audio element", err)
		}
		e.Kind, e.Audio = KindAudio, &audio
	case KindImage:
		var image ImageElement
		if err := json.Unmarshal(data, &image); err != nil {
			return services.Wrap(services.ErrValidation, "", "parse element", "invalid image element", err)
		}
		e.Kind, e.Image = KindImage, &image
	default:
		return services.Wrap(services.ErrValidation, "", "parse element",
			fmt.Sprintf("unknown element type %q", probe.Type), nil)
	}
	return nil
}

func (e Element) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindVideo:
		return marshalTagged(string(KindVideo), e.Video)
	case KindSubtitles:
		return marshalTagged(string(KindSubtitles), e.Subtitles)
	case KindAudio:
		return marshalTagged(string(KindAudio), e.Audio)
	case KindImage:
		return marshalTagged(string(KindImage), e.Image)
	default:
		return nil, fmt.Errorf("cannot marshal element with kind %q", e.Kind)
	}
}

func marshalTagged(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["type"], err = json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}
