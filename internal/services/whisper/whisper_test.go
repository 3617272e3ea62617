package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/services"
)

const whisperJSON = `{
  "segments": [
    {"words": [
      {"word": " hi", "start": 0.0, "end": 0.4},
      {"word": "there ", "start": 0.4, "end": 0.9}
    ]},
    {"words": [
      {"word": "friend", "start": 1.0, "end": 1.5},
      {"word": "  ", "start": 1.5, "end": 1.6}
    ]}
  ]
}`

func TestTranscribeParsesWords(t *testing.T) {
	outputDir := t.TempDir()
	svc := NewService("whisper", "medium", time.Second)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(outputDir, "narration.json"), []byte(whisperJSON), 0o644)
	})

	words, err := svc.Transcribe(context.Background(), "/audio/narration.mp3", outputDir, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("words = %+v", words)
	}
	if words[0].Text != "hi" || words[0].Start != 0.0 || words[0].End != 0.4 {
		t.Fatalf("word 0 = %+v", words[0])
	}
	if words[2].Text != "friend" {
		t.Fatalf("word 2 = %+v", words[2])
	}
}

func TestTranscribePassesModelAndLanguage(t *testing.T) {
	outputDir := t.TempDir()
	svc := NewService("whisper", "small", time.Second)
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(filepath.Join(outputDir, "a.json"), []byte(`{"segments":[]}`), 0o644)
	})

	if _, err := svc.Transcribe(context.Background(), "a.mp3", outputDir, "de"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	joined := ""
	for _, a := range gotArgs {
		joined += a + " "
	}
	for _, want := range []string{"--model small", "--language de", "--word_timestamps True"} {
		if !containsSeq(gotArgs, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func containsSeq(args []string, pair string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i]+" "+args[i+1] == pair {
			return true
		}
	}
	return false
}

func TestTranscribeTimeout(t *testing.T) {
	svc := NewService("", "", 10*time.Millisecond)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := svc.Transcribe(context.Background(), "a.mp3", t.TempDir(), "")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestTranscribeToolFailure(t *testing.T) {
	svc := NewService("", "", time.Second)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 2")
	})

	_, err := svc.Transcribe(context.Background(), "a.mp3", t.TempDir(), "")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	svc := NewService("", "", time.Second)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	_, err := svc.Transcribe(context.Background(), "a.mp3", t.TempDir(), "")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}
