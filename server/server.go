// Package server exposes the HTTP API: focus timer control, summaries, speech,
// session history, health and metrics. It includes permissive CORS for
// development and injects correlation IDs into request contexts for consistent
// logging.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewMux returns the HTTP handler with all routes.
func NewMux(h *Handlers) http.Handler {
	corsCfg := loadCORSConfig()

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.HandleFunc("GET /readyz", h.HandleReadyz)

	// Focus timer
	mux.HandleFunc("/timer/start", h.HandleTimerStart)
	mux.HandleFunc("/timer/end", h.HandleTimerEnd)
	mux.HandleFunc("GET /status", h.HandleStatus)
	// older stream deck buttons still point here
	mux.HandleFunc("/start_pomodoro", h.HandleTimerStart)
	mux.HandleFunc("/end_pomodoro", h.HandleTimerEnd)

	// Summary, speech and session close
	mux.HandleFunc("GET /summary", h.HandleSummary)
	mux.HandleFunc("/speak", h.HandleSpeak)
	mux.HandleFunc("/finalize", h.HandleFinalize)
	mux.HandleFunc("GET /play", h.HandlePlay)

	// Chat buffer
	mux.HandleFunc("/clear", h.HandleClear)
	mux.HandleFunc("POST /chat", h.HandleChatAppend)

	// History
	mux.HandleFunc("GET /history", h.HandleHistoryList)
	mux.HandleFunc("GET /history/{id}", h.HandleHistoryGet)

	handler := otelhttp.NewHandler(withCorrelation(mux), "http-server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return withCORSConfig(handler, corsCfg)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
// writeTimeout must cover the slowest route, a finalize that waits on both the
// summarizer and speech synthesis.
func Start(ctx context.Context, addr string, handler http.Handler, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Shutdown goroutine
	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr), slog.String("component", "http"))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
