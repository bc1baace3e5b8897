package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// LoadFile reads and parses a template file.
func LoadFile(path string) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	t, err := Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("prompt template %s: %w", path, err)
	}
	return t, nil
}

// WatchFile reloads path into src whenever it changes, until ctx is done.
// The parent directory is watched so editors that save by rename are picked
// up. An invalid edit is logged and the previous template stays in effect.
func WatchFile(ctx context.Context, path string, src *Source) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve prompt template path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("add watch path: %w", err)
	}
	slog.Info("watching prompt template", slog.String("path", abs), slog.String("component", "prompt"))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			reload(abs, src)
		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Warn("prompt watcher error", slog.Any("err", err), slog.String("component", "prompt"))
		}
	}
}

func reload(path string, src *Source) {
	t, err := LoadFile(path)
	if err != nil {
		slog.Warn("prompt template reload rejected; keeping previous", slog.Any("err", err), slog.String("component", "prompt"))
		return
	}
	src.Set(t)
	slog.Info("prompt template reloaded", slog.String("path", path), slog.String("component", "prompt"))
}
