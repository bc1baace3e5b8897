// Package archive persists finished sessions and the rolling summary cache.
//
// Layout under the data directory:
//
//	latest_summary.txt               summary cache
//	session-logs/<id>/chat_log.txt   chat lines, newline joined
//	session-logs/<id>/summary.txt    summary text, verbatim
//	session-logs/<id>/summary.mp3    audio, when one was produced
//
// Session ids are local time at minute resolution (IDLayout), so they sort
// chronologically as strings. Two sessions archived in the same minute share
// an id and the later one overwrites the earlier.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/onnwee/stream-recap/telemetry"
)

const (
	IDLayout = "2006-01-02_15-04"

	SessionsDir = "session-logs"
	ChatLogFile = "chat_log.txt"
	SummaryFile = "summary.txt"
	AudioFile   = "summary.mp3"
	dirPerm     = 0o755
	filePerm    = 0o644
)

// ErrNotFound is returned for an unknown or malformed session id.
var ErrNotFound = errors.New("session not found")

// Record describes an archived session for secondary indexes.
type Record struct {
	ID            string
	CreatedAt     time.Time
	ChatLineCount int
	Summary       string
	HasAudio      bool
}

// Indexer mirrors archived sessions somewhere queryable. Optional.
type Indexer interface {
	RecordSession(ctx context.Context, rec Record) error
}

// Archiver writes and reads session directories.
type Archiver struct {
	root  string
	index Indexer
	now   func() time.Time
}

// NewArchiver stores sessions under dataDir/session-logs. index may be nil.
func NewArchiver(dataDir string, index Indexer) *Archiver {
	return &Archiver{root: filepath.Join(dataDir, SessionsDir), index: index, now: time.Now}
}

// Root is the directory holding session folders.
func (a *Archiver) Root() string { return a.root }

// Archive writes one session and returns its id. audioPath is optional; an
// empty path or a missing file archives the session without audio.
func (a *Archiver) Archive(ctx context.Context, chatLines []string, summary, audioPath string) (string, error) {
	created := a.now()
	id := created.Format(IDLayout)
	dir := filepath.Join(a.root, id)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ChatLogFile), []byte(strings.Join(chatLines, "\n")), filePerm); err != nil {
		return "", fmt.Errorf("write chat log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte(summary), filePerm); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	hasAudio := false
	if audioPath != "" {
		err := copyFile(audioPath, filepath.Join(dir, AudioFile))
		switch {
		case err == nil:
			hasAudio = true
		case errors.Is(err, os.ErrNotExist):
			slog.Warn("no audio to archive", slog.String("session", id), slog.String("component", "archive"))
		default:
			return "", fmt.Errorf("copy audio: %w", err)
		}
	}
	if !hasAudio {
		// a same-minute overwrite must not keep the earlier session's audio
		_ = os.Remove(filepath.Join(dir, AudioFile))
	}
	telemetry.SessionsArchived.Inc()

	if a.index != nil {
		rec := Record{ID: id, CreatedAt: created, ChatLineCount: len(chatLines), Summary: summary, HasAudio: hasAudio}
		if err := a.index.RecordSession(ctx, rec); err != nil {
			telemetry.LoggerWithCorr(ctx).Warn("session index update failed", slog.String("session", id), slog.Any("err", err), slog.String("component", "archive"))
		}
	}
	return id, nil
}

// List returns the ids of sessions that have a summary, newest first.
func (a *Archiver) List() ([]string, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.root, e.Name(), SummaryFile)); err != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Summary reads back one archived summary.
func (a *Archiver) Summary(id string) (string, error) {
	if !ValidID(id) {
		return "", ErrNotFound
	}
	b, err := os.ReadFile(filepath.Join(a.root, id, SummaryFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read summary: %w", err)
	}
	return string(b), nil
}

// ValidID reports whether id is a well formed session id. Anything else,
// path separators included, is rejected before touching the filesystem.
func ValidID(id string) bool {
	t, err := time.Parse(IDLayout, id)
	return err == nil && t.Format(IDLayout) == id
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
