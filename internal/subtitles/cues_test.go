package subtitles

import (
	"strings"
	"testing"

	"clipforge/internal/media"
	"clipforge/internal/timeline"
)

func timingFor(scenes ...timeline.SceneTiming) *timeline.ResolvedTiming {
	var total float64
	for _, s := range scenes {
		total += s.Duration
	}
	return &timeline.ResolvedTiming{Scenes: scenes, TotalDuration: total}
}

func TestProgressiveCuesRebaseAndHighlight(t *testing.T) {
	transcripts := []SceneTranscript{{
		SceneID: "scene-2",
		Words: []Word{
			{Text: "hi", Start: 0.0, End: 0.4},
			{Text: "there", Start: 0.4, End: 0.9},
		},
	}}
	timing := timingFor(
		timeline.SceneTiming{SceneID: "scene-1", Start: 0, Duration: 5.0},
		timeline.SceneTiming{SceneID: "scene-2", Start: 5.0, Duration: 7.25},
	)
	settings := media.DefaultSubtitleSettings()

	cues, err := BuildCues(transcripts, timing, settings, Options{})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}

	if cues[0].Start != 5.0 || cues[1].Start != 5.4 {
		t.Fatalf("starts = %v, %v; want 5.0, 5.4", cues[0].Start, cues[1].Start)
	}
	for i, cue := range cues {
		if cue.Text != "hi there" {
			t.Fatalf("cue %d text = %q, want full line", i, cue.Text)
		}
		if cue.Highlight != i {
			t.Fatalf("cue %d highlight = %d", i, cue.Highlight)
		}
	}
	// First word holds until the second starts.
	if cues[0].End != 5.4 {
		t.Fatalf("cue 0 end = %v, want 5.4", cues[0].End)
	}
}

func TestClassicCuesGroupByCharBudget(t *testing.T) {
	words := []Word{
		{Text: "the", Start: 0.0, End: 0.2},
		{Text: "quick", Start: 0.2, End: 0.5},
		{Text: "brown", Start: 0.5, End: 0.8},
		{Text: "fox", Start: 0.8, End: 1.0},
	}
	transcripts := []SceneTranscript{{SceneID: "s", Words: words}}
	timing := timingFor(timeline.SceneTiming{SceneID: "s", Start: 0, Duration: 2})
	settings := media.DefaultSubtitleSettings()
	settings.Style = media.StyleClassic

	cues, err := BuildCues(transcripts, timing, settings, Options{MaxLineChars: 11, MaxLineDuration: 5})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues: %+v", len(cues), cues)
	}
	if cues[0].Text != "the quick" || cues[1].Text != "brown fox" {
		t.Fatalf("texts = %q, %q", cues[0].Text, cues[1].Text)
	}
	if cues[0].Highlight != -1 || cues[1].Highlight != -1 {
		t.Fatal("classic cues must not set a highlight")
	}
	if cues[0].Start != 0.0 || cues[0].End != 0.5 {
		t.Fatalf("cue 0 window = [%v, %v]", cues[0].Start, cues[0].End)
	}
}

func TestClassicCuesBreakOnDuration(t *testing.T) {
	words := []Word{
		{Text: "one", Start: 0.0, End: 1.0},
		{Text: "two", Start: 4.0, End: 6.0},
		{Text: "three", Start: 6.0, End: 7.0},
	}
	transcripts := []SceneTranscript{{SceneID: "s", Words: words}}
	timing := timingFor(timeline.SceneTiming{SceneID: "s", Start: 0, Duration: 8})
	settings := media.DefaultSubtitleSettings()
	settings.Style = media.StyleClassic

	cues, err := BuildCues(transcripts, timing, settings, Options{MaxLineChars: 100, MaxLineDuration: 5})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues: %+v", len(cues), cues)
	}
	if cues[0].Text != "one" {
		t.Fatalf("cue 0 text = %q", cues[0].Text)
	}
}

func TestCuesNeverOverlap(t *testing.T) {
	transcripts := []SceneTranscript{
		{SceneID: "a", Words: []Word{
			{Text: "alpha", Start: 0.0, End: 0.9},
			{Text: "beta", Start: 0.8, End: 1.4},
		}},
		{SceneID: "b", Words: []Word{
			{Text: "gamma", Start: 0.0, End: 0.5},
		}},
	}
	timing := timingFor(
		timeline.SceneTiming{SceneID: "a", Start: 0, Duration: 1.2},
		timeline.SceneTiming{SceneID: "b", Start: 1.2, Duration: 1.0},
	)

	cues, err := BuildCues(transcripts, timing, media.DefaultSubtitleSettings(), Options{})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	for i := 0; i+1 < len(cues); i++ {
		if cues[i].End > cues[i+1].Start {
			t.Fatalf("cue %d [%v, %v] crosses cue %d start %v",
				i, cues[i].Start, cues[i].End, i+1, cues[i+1].Start)
		}
	}
}

func TestCuesClampedToSceneEnd(t *testing.T) {
	// Transcription can report word ends past the probed audio duration; the
	// scene window still bounds every cue.
	words := []Word{
		{Text: "over", Start: 3.5, End: 4.7},
	}
	timing := timingFor(
		timeline.SceneTiming{SceneID: "s", Start: 2.0, Duration: 4.0},
	)

	settings := media.DefaultSubtitleSettings()
	settings.Style = media.StyleClassic
	cues, err := BuildCues([]SceneTranscript{{SceneID: "s", Words: words}}, timing, settings, Options{})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	if len(cues) != 1 || cues[0].End != 6.0 {
		t.Fatalf("classic cues = %+v, want end clamped to 6.0", cues)
	}

	settings.Style = media.StyleProgressive
	cues, err = BuildCues([]SceneTranscript{{SceneID: "s", Words: words}}, timing, settings, Options{})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	if len(cues) != 1 || cues[0].End != 6.0 {
		t.Fatalf("progressive cues = %+v, want end clamped to 6.0", cues)
	}
}

func TestBuildCuesUnknownScene(t *testing.T) {
	transcripts := []SceneTranscript{{SceneID: "ghost", Words: []Word{{Text: "boo", End: 1}}}}
	timing := timingFor(timeline.SceneTiming{SceneID: "real", Duration: 1})

	if _, err := BuildCues(transcripts, timing, media.DefaultSubtitleSettings(), Options{}); err == nil {
		t.Fatal("expected error for unknown scene")
	}
}

func TestBuildCuesSkipsEmptyWords(t *testing.T) {
	transcripts := []SceneTranscript{{SceneID: "s", Words: []Word{
		{Text: "  ", Start: 0, End: 0.2},
		{Text: "hello", Start: 0.2, End: 0.5},
	}}}
	timing := timingFor(timeline.SceneTiming{SceneID: "s", Duration: 1})

	cues, err := BuildCues(transcripts, timing, media.DefaultSubtitleSettings(), Options{})
	if err != nil {
		t.Fatalf("BuildCues: %v", err)
	}
	if len(cues) != 1 || cues[0].Text != "hello" {
		t.Fatalf("cues = %+v", cues)
	}
}

func TestRenderASS(t *testing.T) {
	settings := media.DefaultSubtitleSettings()
	settings.Position = "center-bottom"
	settings.WordColor = "#FF0000"
	settings.LineColor = "#FFFFFF"

	cues := []Cue{
		{Start: 5.0, End: 5.4, Text: "hi there", Words: []string{"hi", "there"}, Highlight: 0},
		{Start: 65.5, End: 66.0, Text: "plain line", Highlight: -1},
	}

	doc := RenderASS(cues, settings)

	if !strings.Contains(doc, "[Script Info]") || !strings.Contains(doc, "[V4+ Styles]") {
		t.Fatal("missing ASS sections")
	}
	// #FF0000 becomes blue-green-red order.
	if !strings.Contains(doc, "&H000000FF") {
		t.Fatalf("word color not converted:\n%s", doc)
	}
	// center-bottom is alignment 2; the style line ends with margins+encoding.
	if !strings.Contains(doc, ",2,10,10,20,1") {
		t.Fatalf("alignment not applied:\n%s", doc)
	}
	if !strings.Contains(doc, "Dialogue: 0,0:00:05.00,0:00:05.40,Default,,0,0,0,,") {
		t.Fatalf("first dialogue timing wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "{\\c&H000000FF&}hi{\\c&H00FFFFFF&} there") {
		t.Fatalf("highlight markup missing:\n%s", doc)
	}
	if !strings.Contains(doc, "Dialogue: 0,0:01:05.50,0:01:06.00,Default,,0,0,0,,plain line") {
		t.Fatalf("classic dialogue wrong:\n%s", doc)
	}
}

func TestRenderASSSkipsZeroLengthCues(t *testing.T) {
	cues := []Cue{{Start: 1, End: 1, Text: "gone", Highlight: -1}}
	doc := RenderASS(cues, media.DefaultSubtitleSettings())
	if strings.Contains(doc, "gone") {
		t.Fatal("zero-length cue should be dropped")
	}
}

func TestEscapeText(t *testing.T) {
	if got := escapeText("a{b}c|d\ne"); got != `a\{b\}c\hd\Ne` {
		t.Fatalf("escapeText = %q", got)
	}
	if got := escapeText("  spaced   out  "); got != "spaced out" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	cases := map[float64]string{
		0:       "0:00:00.00",
		5.4:     "0:00:05.40",
		65.5:    "0:01:05.50",
		3725.25: "1:02:05.25",
	}
	for in, want := range cases {
		if got := formatTime(in); got != want {
			t.Errorf("formatTime(%v) = %q, want %q", in, got, want)
		}
	}
}
