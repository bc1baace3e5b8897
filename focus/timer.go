// Package focus tracks work/break intervals and watches them for expiry.
//
// A Timer holds at most one running countdown tagged with a Mode. StartMonitor
// polls the timer on a fixed period and, when a work interval runs out, hands
// control to the finalize callback supplied by the caller.
package focus

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mode tags an interval as focused work or a break.
type Mode string

const (
	ModeWork  Mode = "work"
	ModeBreak Mode = "break"
)

var (
	// ErrInvalidDuration is returned by Start for durations outside (0, MaxDuration].
	ErrInvalidDuration = errors.New("duration must be positive and at most 24 hours")
	// ErrInvalidMode is returned for modes other than work and break.
	ErrInvalidMode = errors.New("mode must be work or break")
)

// MaxMinutes bounds a single interval; MaxDuration is the same bound as a Duration.
const (
	MaxMinutes  = 24 * 60
	MaxDuration = MaxMinutes * time.Minute
)

// ParseMode converts user input into a Mode. Empty input means work.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWork, "":
		return ModeWork, nil
	case ModeBreak:
		return ModeBreak, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Status is a consistent snapshot of the timer.
type Status struct {
	Active bool
	Mode   Mode
	Left   time.Duration
}

// Timer is a single countdown. All methods are safe for concurrent use; the
// zero value is not usable, call NewTimer.
type Timer struct {
	mu       sync.Mutex
	now      func() time.Time
	started  time.Time
	duration time.Duration
	active   bool
	mode     Mode
}

// NewTimer returns an inactive timer in work mode.
func NewTimer() *Timer {
	return &Timer{now: time.Now, mode: ModeWork}
}

// Start (re)starts the countdown. Calling Start on a running timer overwrites it.
func (t *Timer) Start(d time.Duration, mode Mode) error {
	if d <= 0 || d > MaxDuration {
		return ErrInvalidDuration
	}
	if mode != ModeWork && mode != ModeBreak {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = t.now()
	t.duration = d
	t.active = true
	t.mode = mode
	return nil
}

// TimeLeft returns the remaining time, or zero when inactive or elapsed.
func (t *Timer) TimeLeft() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeLeftLocked()
}

func (t *Timer) timeLeftLocked() time.Duration {
	if !t.active {
		return 0
	}
	left := t.duration - t.now().Sub(t.started)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a running interval has reached zero. It never mutates state.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active && t.timeLeftLocked() <= 0
}

// Reset clears the countdown. Idempotent.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Timer) resetLocked() {
	t.started = time.Time{}
	t.duration = 0
	t.active = false
}

// Status returns the active flag, mode and remaining time under one lock.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{Active: t.active, Mode: t.mode, Left: t.timeLeftLocked()}
}

// TakeExpired resets the timer and returns its mode if, and only if, it had
// expired. Only one caller can observe a given expiry.
func (t *Timer) TakeExpired() (Mode, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.timeLeftLocked() > 0 {
		return "", false
	}
	mode := t.mode
	t.resetLocked()
	return mode, true
}

// Stop resets the timer and reports the mode it was running in, if any.
func (t *Timer) Stop() (Mode, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return "", false
	}
	mode := t.mode
	t.resetLocked()
	return mode, true
}

// FormatClock renders d as mm:ss, truncating sub-second remainders.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
