// Command stream-recap is a single-user companion for live streaming.
// It:
//   - Loads configuration and initializes structured logging.
//   - Listens to Twitch chat and keeps the lines of the current session.
//   - Runs a work/break focus timer; when a work interval ends the session is
//     summarized by a local model, read aloud and archived.
//   - Exposes an HTTP API for stream deck buttons and overlays, plus /healthz,
//     /readyz and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/stream-recap/archive"
	"github.com/onnwee/stream-recap/chat"
	"github.com/onnwee/stream-recap/config"
	"github.com/onnwee/stream-recap/db"
	"github.com/onnwee/stream-recap/executor"
	"github.com/onnwee/stream-recap/focus"
	"github.com/onnwee/stream-recap/prompt"
	"github.com/onnwee/stream-recap/server"
	"github.com/onnwee/stream-recap/session"
	"github.com/onnwee/stream-recap/speech"
	"github.com/onnwee/stream-recap/summarize"
	"github.com/onnwee/stream-recap/telemetry"
)

const version = "1.0.0"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config, including prompt template validation. Nothing is served on failure.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	tpl, err := cfg.Template()
	if err != nil {
		slog.Error("prompt template invalid", slog.Any("err", err))
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("data dir unavailable", slog.String("path", cfg.DataDir), slog.Any("err", err))
		os.Exit(1)
	}

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("stream-recap", version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional session index. Left as nil interfaces when DB_DSN is unset.
	var (
		indexer archive.Indexer
		pinger  server.Pinger
	)
	if cfg.DBDsn != "" {
		database, err := openIndex(ctx, cfg.DBDsn)
		if err != nil {
			slog.Error("session index unavailable", slog.Any("err", err), slog.String("component", "db"))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		index := &db.SessionIndex{DB: database}
		indexer, pinger = index, index
	} else {
		slog.Info("DB_DSN not set; session index disabled", slog.String("component", "db"))
	}

	// Components
	exec := executor.New()
	buf := chat.NewBuffer()
	cache := archive.NewCache(cfg.DataDir)
	arc := archive.NewArchiver(cfg.DataDir, indexer)
	promptSrc := prompt.NewSource(tpl)
	summ := summarize.New(buf, cache,
		summarize.NewOllama(cfg.SummarizerBinary, cfg.SummarizerModel, exec),
		promptSrc,
		summarize.Config{Channel: cfg.TwitchChannel, Window: cfg.ChatWindow, Timeout: cfg.SummarizerTimeout},
	)
	speaker := speech.NewSpeaker(speech.NewEdgeTTS(cfg.TTSBinary, cfg.TTSVoice, exec), cfg.DataDir, cfg.TTSTimeout)
	workflow := session.New(buf, cache, summ, speaker, arc)
	timer := focus.NewTimer()

	deps := server.Deps{
		Timer:               timer,
		Buffer:              buf,
		Summarizer:          summ,
		Workflow:            workflow,
		Archiver:            arc,
		AudioPath:           speaker.AudioPath(),
		DefaultWorkMinutes:  cfg.DefaultWorkMinutes,
		DefaultBreakMinutes: cfg.DefaultBreakMinutes,
		DataDir:             cfg.DataDir,
		RequiredBinaries:    []string{cfg.SummarizerBinary, cfg.TTSBinary},
		Index:               pinger,
	}

	var onWork func(context.Context)
	if cfg.FinalizeOnWorkExpiry {
		onWork = func(ctx context.Context) {
			res, err := workflow.Finalize(ctx)
			if err != nil {
				slog.Error("finalize on work expiry failed", slog.Any("err", err), slog.String("component", "focus"))
				return
			}
			slog.Info("finalize on work expiry", slog.String("outcome", res.Outcome.String()), slog.String("session", res.SessionID), slog.String("component", "focus"))
		}
	}

	startPprof()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		chat.StartListener(gctx, chat.ListenerConfig{
			Channel:       cfg.TwitchChannel,
			BotUsername:   cfg.TwitchBotUsername,
			OAuthToken:    cfg.TwitchOAuthToken,
			ExcludedUsers: cfg.ExcludedUsers,
		}, buf)
		return nil
	})
	g.Go(func() error {
		focus.StartMonitor(gctx, timer, focus.MonitorConfig{Interval: cfg.TimerPollInterval, OnWorkExpired: onWork})
		return nil
	})
	if cfg.PromptTemplateFile != "" {
		g.Go(func() error {
			if err := prompt.WatchFile(gctx, cfg.PromptTemplateFile, promptSrc); err != nil {
				// hot reload is a convenience; keep serving the loaded template
				slog.Error("prompt watcher stopped", slog.Any("err", err), slog.String("component", "prompt"))
			}
			return nil
		})
	}
	g.Go(func() error {
		writeTimeout := cfg.SummarizerTimeout + cfg.TTSTimeout + 30*time.Second
		return server.Start(gctx, cfg.HTTPAddr, server.NewMux(server.NewHandlers(deps)), writeTimeout)
	})

	if err := g.Wait(); err != nil {
		slog.Error("shutting down after error", slog.Any("err", err))
		stop()
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func openIndex(ctx context.Context, dsn string) (*sql.DB, error) {
	database, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// startPprof enables pprof profiling endpoints in debug mode (ENABLE_PPROF=1).
func startPprof() {
	if os.Getenv("ENABLE_PPROF") != "1" {
		return
	}
	pprofAddr := os.Getenv("PPROF_ADDR")
	if pprofAddr == "" {
		pprofAddr = "localhost:6060"
	}
	go func() {
		slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
		// Use an http.Server with timeouts to satisfy G114 and avoid DoS risks
		srv := &http.Server{
			Addr:              pprofAddr,
			Handler:           nil, // default mux exposes /debug/pprof
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("pprof server error", slog.Any("err", err))
		}
	}()
}
