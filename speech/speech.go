// Package speech reads summaries aloud into an mp3 file.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/onnwee/stream-recap/executor"
	"github.com/onnwee/stream-recap/telemetry"
)

// AudioFile is the rolling audio artifact name inside the data directory.
const AudioFile = "summary.mp3"

const DefaultTimeout = 60 * time.Second

// Synthesizer renders text to an audio file at outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

var cadence = strings.NewReplacer("- ", "• ", "\n", "\n\n")

// PrepareText rewrites model output for spoken cadence: escaped and bare
// underscores become spaces, list dashes become bullets and every line break
// is doubled for a pause.
func PrepareText(text string) string {
	text = strings.ReplaceAll(text, `\_`, "_")
	text = strings.ReplaceAll(text, "_", " ")
	return cadence.Replace(text)
}

// EdgeTTS shells out to the edge-tts CLI.
type EdgeTTS struct {
	Binary string
	Voice  string
	exec   executor.Executor
}

// NewEdgeTTS returns a Synthesizer using edge-tts. An empty binary means
// "edge-tts" on PATH.
func NewEdgeTTS(binary, voice string, exec executor.Executor) *EdgeTTS {
	if binary == "" {
		binary = "edge-tts"
	}
	if exec == nil {
		exec = executor.New()
	}
	return &EdgeTTS{Binary: binary, Voice: voice, exec: exec}
}

// Synthesize passes text through a temp file; summaries can be long and may
// start with a dash, which the CLI would take for a flag.
func (e *EdgeTTS) Synthesize(ctx context.Context, text, outPath string) error {
	f, err := os.CreateTemp("", "recap-tts-*.txt")
	if err != nil {
		return fmt.Errorf("create tts input: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("write tts input: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close tts input: %w", err)
	}
	_, err = e.exec.Execute(ctx, nil, e.Binary, "--voice", e.Voice, "--file", f.Name(), "--write-media", outPath)
	return err
}

// Speaker synthesizes into the fixed audio artifact, replacing it only when
// synthesis succeeds.
type Speaker struct {
	synth     Synthesizer
	audioPath string
	timeout   time.Duration
}

// NewSpeaker writes audio to dataDir/summary.mp3.
func NewSpeaker(synth Synthesizer, dataDir string, timeout time.Duration) *Speaker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Speaker{synth: synth, audioPath: filepath.Join(dataDir, AudioFile), timeout: timeout}
}

// AudioPath is the location of the most recent audio.
func (s *Speaker) AudioPath() string { return s.audioPath }

// Speak renders text to the audio artifact.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerName, "speak")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dir := filepath.Dir(s.audioPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".summary-*.mp3")
	if err != nil {
		return fmt.Errorf("create temp audio: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	var synthErr error
	d := telemetry.TimeFunc(telemetry.SpeechDuration, func() {
		synthErr = s.synth.Synthesize(ctx, PrepareText(text), tmpName)
	})
	if synthErr != nil {
		telemetry.SpeechFailures.Inc()
		telemetry.RecordError(span, synthErr)
		return fmt.Errorf("synthesize speech: %w", synthErr)
	}
	if err := os.Rename(tmpName, s.audioPath); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("replace audio: %w", err)
	}
	telemetry.LoggerWithCorr(ctx).Info("summary spoken", slog.Duration("took", d), slog.String("component", "speech"))
	telemetry.SetSpanSuccess(span)
	return nil
}
