// Package summarize turns the recent chat window into a short spoken-style summary.
package summarize

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/stream-recap/archive"
	"github.com/onnwee/stream-recap/chat"
	"github.com/onnwee/stream-recap/prompt"
	"github.com/onnwee/stream-recap/telemetry"
)

const (
	// NoChatMessage is returned when there is neither chat nor a cached summary.
	NoChatMessage = "No chat to summarize yet, and no previous summary available."
	// NoResponse replaces blank model output.
	NoResponse = "(No response from model)"
	// ErrorPrefix starts the text returned when the model call fails.
	ErrorPrefix = "Error during summarization: "

	DefaultWindow  = 100
	DefaultTimeout = 60 * time.Second
)

// Config wires a Service.
type Config struct {
	Channel string
	// Window is how many of the newest chat lines go into the prompt.
	Window  int
	Timeout time.Duration
}

// Service runs the summarization workflow against a chat buffer.
type Service struct {
	buf    *chat.Buffer
	cache  *archive.Cache
	gen    Generator
	prompt *prompt.Source
	cfg    Config
}

// New returns a Service. Zero Window and Timeout take the defaults.
func New(buf *chat.Buffer, cache *archive.Cache, gen Generator, src *prompt.Source, cfg Config) *Service {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Service{buf: buf, cache: cache, gen: gen, prompt: src, cfg: cfg}
}

// Window is the number of recent lines summarized.
func (s *Service) Window() int { return s.cfg.Window }

// Summarize summarizes the newest lines in the buffer. With an empty buffer it
// returns the cached summary, or NoChatMessage, without calling the model.
// Model failures come back as text starting with ErrorPrefix.
func (s *Service) Summarize(ctx context.Context) string {
	lines := s.buf.Recent(s.cfg.Window)
	if len(lines) == 0 {
		if cached, err := s.cache.Load(); err == nil {
			telemetry.Summaries.WithLabelValues("cached").Inc()
			return cached
		} else if !errors.Is(err, archive.ErrNoSummary) {
			telemetry.LoggerWithCorr(ctx).Warn("summary cache unreadable", slog.Any("err", err), slog.String("component", "summarize"))
		}
		telemetry.Summaries.WithLabelValues("nothing").Inc()
		return NoChatMessage
	}
	text, _ := s.SummarizeLines(ctx, lines)
	return text
}

// SummarizeLines summarizes exactly lines (callers trim to the window) and
// stores a successful result in the cache. ok is false when the model call
// failed and text carries the error message instead of a summary.
func (s *Service) SummarizeLines(ctx context.Context, lines []chat.Line) (text string, ok bool) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerName, "summarize",
		attribute.Int("chat.lines", len(lines)))
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "summarize"))

	rendered := s.prompt.Current().Render(s.cfg.Channel, strings.Join(chat.Strings(lines), "\n"))

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var out string
	var err error
	d := telemetry.TimeFunc(telemetry.SummarizeDuration, func() {
		out, err = s.gen.Generate(callCtx, rendered)
	})
	if err != nil {
		log.Error("summarizer failed", slog.Any("err", err), slog.Duration("took", d))
		telemetry.RecordError(span, err)
		telemetry.Summaries.WithLabelValues("error").Inc()
		return ErrorPrefix + err.Error(), false
	}

	text = strings.TrimSpace(out)
	if text == "" {
		text = NoResponse
		telemetry.Summaries.WithLabelValues("empty").Inc()
	} else {
		telemetry.Summaries.WithLabelValues("ok").Inc()
	}
	if err := s.cache.Store(text); err != nil {
		log.Warn("summary cache write failed", slog.Any("err", err))
	}
	log.Info("summary generated", slog.Int("lines", len(lines)), slog.Duration("took", d))
	telemetry.SetSpanSuccess(span)
	return text, true
}
