// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	ChatMessagesReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "recap_chat_messages_received_total", Help: "Chat lines appended to the buffer"})
	ChatMessagesFiltered = promauto.NewCounter(prometheus.CounterOpts{Name: "recap_chat_messages_filtered_total", Help: "Chat lines dropped as self-echo or excluded authors"})
	Summaries            = promauto.NewCounterVec(prometheus.CounterOpts{Name: "recap_summaries_total", Help: "Summarization attempts by result (ok, empty, error, cached, nothing)"}, []string{"result"})
	Finalizations        = promauto.NewCounterVec(prometheus.CounterOpts{Name: "recap_finalizations_total", Help: "Finalize runs by outcome (archived, reused, nothing)"}, []string{"outcome"})
	SpeechFailures       = promauto.NewCounter(prometheus.CounterOpts{Name: "recap_speech_failures_total", Help: "Speech synthesis failures"})
	SessionsArchived     = promauto.NewCounter(prometheus.CounterOpts{Name: "recap_sessions_archived_total", Help: "Session records written to disk"})
	IntervalsCompleted   = promauto.NewCounterVec(prometheus.CounterOpts{Name: "recap_intervals_completed_total", Help: "Focus intervals that ran to expiry, by mode"}, []string{"mode"})

	// Histograms (seconds)
	SummarizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recap_summarize_duration_seconds", Help: "External summarizer call duration seconds", Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90}})
	SpeechDuration    = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recap_speech_duration_seconds", Help: "Speech synthesis duration seconds", Buckets: prometheus.DefBuckets})

	// Gauges
	ChatBufferLines = promauto.NewGauge(prometheus.GaugeOpts{Name: "recap_chat_buffer_lines", Help: "Lines currently held in the chat buffer"})
)

// SetBufferLines records the current chat buffer length.
func SetBufferLines(n int) { ChatBufferLines.Set(float64(n)) }

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
