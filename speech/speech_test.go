package speech

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/stream-recap/executor"
)

type fakeSynth struct {
	text string
	err  error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, outPath string) error {
	f.text = text
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("mp3:"+text), 0o644)
}

func TestPrepareText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`some\_user_name said hi`, "some user name said hi"},
		{"- one\n- two", "• one\n\n• two"},
		{"para one\n\npara two", "para one\n\n\n\npara two"},
	}
	for _, tt := range tests {
		if got := PrepareText(tt.in); got != tt.want {
			t.Errorf("PrepareText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSpeakWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeSynth{}
	s := NewSpeaker(fs, dir, time.Second)
	if err := s.Speak(context.Background(), "- great stream"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if fs.text != "• great stream" {
		t.Fatalf("synth got %q", fs.text)
	}
	b, err := os.ReadFile(s.AudioPath())
	if err != nil || string(b) != "mp3:• great stream" {
		t.Fatalf("artifact = %q, %v", b, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left: %v", entries)
	}
}

func TestSpeakFailureKeepsPreviousAudio(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, AudioFile), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewSpeaker(&fakeSynth{err: errors.New("voice not found")}, dir, time.Second)
	if err := s.Speak(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	b, _ := os.ReadFile(s.AudioPath())
	if string(b) != "old" {
		t.Fatalf("audio = %q, want previous artifact untouched", b)
	}
}

func TestEdgeTTSInvocation(t *testing.T) {
	var args []string
	var input string
	exec := executor.Func(func(_ context.Context, _ io.Reader, name string, a ...string) (string, error) {
		args = append([]string{name}, a...)
		for i, v := range a {
			if v == "--file" {
				b, err := os.ReadFile(a[i+1])
				if err != nil {
					return "", err
				}
				input = string(b)
			}
		}
		return "", nil
	})
	e := NewEdgeTTS("", "en-US-GuyNeural", exec)
	if err := e.Synthesize(context.Background(), "- hello", "/tmp/out.mp3"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	got := strings.Join(args, " ")
	if !strings.HasPrefix(got, "edge-tts --voice en-US-GuyNeural --file ") || !strings.HasSuffix(got, "--write-media /tmp/out.mp3") {
		t.Fatalf("command = %q", got)
	}
	if input != "- hello" {
		t.Fatalf("text file = %q", input)
	}
}
