package chat

import (
	"sync"

	"github.com/onnwee/stream-recap/telemetry"
)

// Line is one chat message.
type Line struct {
	Author string
	Text   string
}

// String renders the line the way it is fed to the summarizer and archived.
func (l Line) String() string { return l.Author + ": " + l.Text }

// Strings renders lines in order.
func Strings(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

// Buffer is the in-memory chat log for the current session. It performs no
// filtering. Safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	lines []Line
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Append adds a line at the end.
func (b *Buffer) Append(author, text string) {
	b.mu.Lock()
	b.lines = append(b.lines, Line{Author: author, Text: text})
	n := len(b.lines)
	b.mu.Unlock()
	telemetry.SetBufferLines(n)
}

// Recent returns up to n of the newest lines, oldest first.
func (b *Buffer) Recent(n int) []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	return recent(b.lines, n)
}

// Snapshot returns a copy of every line.
func (b *Buffer) Snapshot() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Line(nil), b.lines...)
}

// Drain returns every line and empties the buffer in one step, so an append
// racing with it lands either in the returned slice or in the fresh buffer.
func (b *Buffer) Drain() []Line {
	b.mu.Lock()
	lines := b.lines
	b.lines = nil
	b.mu.Unlock()
	telemetry.SetBufferLines(0)
	return lines
}

// Restore puts previously drained lines back ahead of anything appended since.
func (b *Buffer) Restore(lines []Line) {
	if len(lines) == 0 {
		return
	}
	b.mu.Lock()
	merged := make([]Line, 0, len(lines)+len(b.lines))
	merged = append(merged, lines...)
	b.lines = append(merged, b.lines...)
	n := len(b.lines)
	b.mu.Unlock()
	telemetry.SetBufferLines(n)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.lines = nil
	b.mu.Unlock()
	telemetry.SetBufferLines(0)
}

// Len reports the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// recent copies up to n of the newest entries of lines, oldest first.
func recent(lines []Line, n int) []Line {
	if n <= 0 || len(lines) == 0 {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return append([]Line(nil), lines...)
}

// Tail is recent for callers holding an already drained slice.
func Tail(lines []Line, n int) []Line { return recent(lines, n) }
