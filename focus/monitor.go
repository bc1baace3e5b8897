package focus

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/stream-recap/telemetry"
)

// DefaultPollInterval matches the coarse polling the monitor was designed around.
const DefaultPollInterval = 5 * time.Second

// MonitorConfig controls StartMonitor.
type MonitorConfig struct {
	// Interval between expiry checks. Zero means DefaultPollInterval.
	Interval time.Duration
	// OnWorkExpired runs when a work interval ends. Nil disables the trigger;
	// the timer is still reset.
	OnWorkExpired func(ctx context.Context)
}

// StartMonitor polls timer until ctx is cancelled. Missed ticks are fine: an
// expiry is observed by exactly one tick because TakeExpired resets the timer
// before the callback runs.
func StartMonitor(ctx context.Context, timer *Timer, cfg MonitorConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	slog.Info("timer monitor starting", slog.Duration("interval", interval), slog.String("component", "focus"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("timer monitor stopped", slog.String("component", "focus"))
			return
		case <-ticker.C:
			checkOnce(ctx, timer, cfg.OnWorkExpired)
		}
	}
}

// checkOnce handles a single poll and reports whether an expiry was consumed.
func checkOnce(ctx context.Context, timer *Timer, onWork func(context.Context)) bool {
	mode, ok := timer.TakeExpired()
	if !ok {
		return false
	}
	telemetry.IntervalsCompleted.WithLabelValues(string(mode)).Inc()
	switch mode {
	case ModeWork:
		slog.Info("work interval complete; finalizing", slog.String("component", "focus"))
		if onWork != nil {
			onWork(ctx)
		}
	case ModeBreak:
		slog.Info("break interval complete; nothing to finalize", slog.String("component", "focus"))
	}
	return true
}
