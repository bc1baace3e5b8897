// Package session closes out a stretch of chat: summarize, speak, archive.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/stream-recap/archive"
	"github.com/onnwee/stream-recap/chat"
	"github.com/onnwee/stream-recap/telemetry"
)

// Outcome of a finalize run.
type Outcome int

const (
	// OutcomeNothing means no summary was ever produced; nothing happened.
	OutcomeNothing Outcome = iota
	// OutcomeReused means there was no new chat and the cached summary was spoken again.
	OutcomeReused
	// OutcomeArchived means fresh chat was summarized, spoken and saved.
	OutcomeArchived
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReused:
		return "reused"
	case OutcomeArchived:
		return "archived"
	default:
		return "nothing"
	}
}

// Result describes a finalize run.
type Result struct {
	Outcome   Outcome
	Summary   string
	SessionID string
	// SpeechErr is set when audio could not be produced. The run still
	// counts; an archived session then has no audio.
	SpeechErr error
}

// Message is the user-facing description of r.
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeArchived:
		return "New summary generated, spoken, and session saved."
	case OutcomeReused:
		return "No new chat. Reusing latest summary.\n" + r.Summary
	default:
		return "No summary available to finalize."
	}
}

type summarizer interface {
	SummarizeLines(ctx context.Context, lines []chat.Line) (string, bool)
	Window() int
}

type speaker interface {
	Speak(ctx context.Context, text string) error
	AudioPath() string
}

type archiver interface {
	Archive(ctx context.Context, chatLines []string, summary, audioPath string) (string, error)
}

// Workflow owns the finalize transaction.
type Workflow struct {
	// mu only serializes finalize runs so a timer expiry and a manual finalize
	// cannot interleave. It is held across the model and TTS waits; the buffer
	// has its own lock.
	mu       sync.Mutex
	buf      *chat.Buffer
	cache    *archive.Cache
	summ     summarizer
	speaker  speaker
	archiver archiver
}

// New wires a Workflow.
func New(buf *chat.Buffer, cache *archive.Cache, summ summarizer, sp speaker, arc archiver) *Workflow {
	return &Workflow{buf: buf, cache: cache, summ: summ, speaker: sp, archiver: arc}
}

// Finalize requires a cached summary. With new chat in the buffer it takes
// the chat out, summarizes the newest window, speaks it and archives all the
// taken lines as one session. Without new chat it speaks the cached summary
// again and writes nothing.
//
// A failed summarizer run is archived with its error text, but the cache keeps
// the last good summary. If archiving fails the taken lines go back into the
// buffer ahead of newer chat.
func (w *Workflow) Finalize(ctx context.Context) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerName, "finalize")
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "session"))

	cached, err := w.cache.Load()
	if errors.Is(err, archive.ErrNoSummary) {
		telemetry.Finalizations.WithLabelValues(OutcomeNothing.String()).Inc()
		log.Info("finalize skipped: no summary yet")
		return Result{Outcome: OutcomeNothing}, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return Result{}, err
	}

	lines := w.buf.Drain()
	if len(lines) == 0 {
		res := Result{Outcome: OutcomeReused, Summary: cached}
		if err := w.speaker.Speak(ctx, cached); err != nil {
			log.Warn("speech failed", slog.Any("err", err))
			res.SpeechErr = err
		}
		telemetry.Finalizations.WithLabelValues(res.Outcome.String()).Inc()
		span.SetAttributes(attribute.String("finalize.outcome", res.Outcome.String()))
		telemetry.SetSpanSuccess(span)
		return res, nil
	}

	text, _ := w.summ.SummarizeLines(ctx, chat.Tail(lines, w.summ.Window()))
	res := Result{Outcome: OutcomeArchived, Summary: text}

	audio := w.speaker.AudioPath()
	if err := w.speaker.Speak(ctx, text); err != nil {
		log.Warn("speech failed; archiving without audio", slog.Any("err", err))
		res.SpeechErr = err
		audio = ""
	}

	id, err := w.archiver.Archive(ctx, chat.Strings(lines), text, audio)
	if err != nil {
		// keep the chat for the next attempt
		w.buf.Restore(lines)
		telemetry.RecordError(span, err)
		log.Error("archive failed; chat kept", slog.Any("err", err), slog.Int("lines", len(lines)))
		return res, fmt.Errorf("archive session: %w", err)
	}
	res.SessionID = id
	telemetry.Finalizations.WithLabelValues(res.Outcome.String()).Inc()
	span.SetAttributes(
		attribute.String("finalize.outcome", res.Outcome.String()),
		attribute.String("session.id", id),
	)
	telemetry.SetSpanSuccess(span)
	log.Info("session archived", slog.String("session", id), slog.Int("lines", len(lines)))
	return res, nil
}

// Speak reads the cached summary aloud without touching chat or the archive.
// It returns archive.ErrNoSummary when there is nothing to speak.
func (w *Workflow) Speak(ctx context.Context) (string, error) {
	text, err := w.cache.Load()
	if err != nil {
		return "", err
	}
	if err := w.speaker.Speak(ctx, text); err != nil {
		return text, err
	}
	return text, nil
}
