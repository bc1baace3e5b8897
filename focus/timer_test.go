package focus

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock is advanced by hand so tests never sleep.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTimer() (*Timer, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	tm := NewTimer()
	tm.now = clk.now
	return tm, clk
}

func TestStartThenNotExpired(t *testing.T) {
	for _, minutes := range []int{1, 5, 25, 90} {
		tm, _ := newTestTimer()
		if err := tm.Start(time.Duration(minutes)*time.Minute, ModeWork); err != nil {
			t.Fatalf("Start(%d): %v", minutes, err)
		}
		if left := tm.TimeLeft(); left > time.Duration(minutes)*time.Minute {
			t.Errorf("TimeLeft = %v, want <= %d minutes", left, minutes)
		}
		if tm.Expired() {
			t.Errorf("Expired right after Start(%d)", minutes)
		}
	}
}

func TestTimeLeftMonotonic(t *testing.T) {
	tm, clk := newTestTimer()
	if err := tm.Start(2*time.Minute, ModeBreak); err != nil {
		t.Fatal(err)
	}
	prev := tm.TimeLeft()
	for i := 0; i < 10; i++ {
		clk.advance(17 * time.Second)
		left := tm.TimeLeft()
		if left > prev {
			t.Fatalf("TimeLeft increased: %v -> %v", prev, left)
		}
		prev = left
	}
	if prev != 0 {
		t.Errorf("TimeLeft after 170s of a 120s timer = %v, want 0", prev)
	}
	if !tm.Expired() {
		t.Error("expected Expired after duration elapsed")
	}
}

func TestResetClearsState(t *testing.T) {
	tm, clk := newTestTimer()
	_ = tm.Start(time.Minute, ModeWork)
	clk.advance(2 * time.Minute)
	tm.Reset()
	tm.Reset()
	if tm.Expired() {
		t.Error("Expired after Reset")
	}
	if left := tm.TimeLeft(); left != 0 {
		t.Errorf("TimeLeft after Reset = %v", left)
	}
	if st := tm.Status(); st.Active {
		t.Error("Status.Active after Reset")
	}
}

func TestStartOverwritesRunningTimer(t *testing.T) {
	tm, clk := newTestTimer()
	_ = tm.Start(time.Minute, ModeWork)
	clk.advance(50 * time.Second)
	_ = tm.Start(5*time.Minute, ModeBreak)
	st := tm.Status()
	if !st.Active || st.Mode != ModeBreak || st.Left != 5*time.Minute {
		t.Fatalf("Status = %+v, want active break with 5m left", st)
	}
}

func TestStartRejectsBadInput(t *testing.T) {
	tm, _ := newTestTimer()
	if err := tm.Start(0, ModeWork); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Start(0) err = %v", err)
	}
	if err := tm.Start(time.Minute, Mode("nap")); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Start(nap) err = %v", err)
	}
	if err := tm.Start(MaxDuration+time.Minute, ModeWork); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Start(over max) err = %v", err)
	}
	if tm.Status().Active {
		t.Error("timer active after rejected Start")
	}
	if err := tm.Start(MaxDuration, ModeWork); err != nil {
		t.Errorf("Start(MaxDuration) err = %v", err)
	}
}

func TestTakeExpiredOnce(t *testing.T) {
	tm, clk := newTestTimer()
	_ = tm.Start(time.Minute, ModeWork)
	if _, ok := tm.TakeExpired(); ok {
		t.Fatal("TakeExpired before expiry")
	}
	clk.advance(time.Minute)
	mode, ok := tm.TakeExpired()
	if !ok || mode != ModeWork {
		t.Fatalf("TakeExpired = %q, %v", mode, ok)
	}
	if _, ok := tm.TakeExpired(); ok {
		t.Fatal("expiry observed twice")
	}
}

func TestStop(t *testing.T) {
	tm, _ := newTestTimer()
	if _, ok := tm.Stop(); ok {
		t.Fatal("Stop on idle timer reported active")
	}
	_ = tm.Start(time.Minute, ModeBreak)
	mode, ok := tm.Stop()
	if !ok || mode != ModeBreak {
		t.Fatalf("Stop = %q, %v", mode, ok)
	}
	if tm.Status().Active {
		t.Fatal("still active after Stop")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeWork, false},
		{"work", ModeWork, false},
		{"Break", ModeBreak, false},
		{" break ", ModeBreak, false},
		{"lunch", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[time.Duration]string{
		0:                                     "00:00",
		59*time.Second + 900*time.Millisecond: "00:59",
		25 * time.Minute:                      "25:00",
		4*time.Minute + 5*time.Second:         "04:05",
	}
	for d, want := range tests {
		if got := FormatClock(d); got != want {
			t.Errorf("FormatClock(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestCheckOnceWorkFinalizes(t *testing.T) {
	tm, clk := newTestTimer()
	_ = tm.Start(time.Minute, ModeWork)
	calls := 0
	onWork := func(context.Context) { calls++ }

	if checkOnce(context.Background(), tm, onWork) {
		t.Fatal("checkOnce consumed a running timer")
	}
	clk.advance(2 * time.Minute)
	if !checkOnce(context.Background(), tm, onWork) {
		t.Fatal("checkOnce missed the expiry")
	}
	checkOnce(context.Background(), tm, onWork)
	if calls != 1 {
		t.Fatalf("finalize called %d times, want 1", calls)
	}
	if tm.Status().Active {
		t.Fatal("timer not reset after expiry")
	}
}

func TestCheckOnceBreakOnlyResets(t *testing.T) {
	tm, clk := newTestTimer()
	_ = tm.Start(time.Minute, ModeBreak)
	clk.advance(time.Minute)
	called := false
	if !checkOnce(context.Background(), tm, func(context.Context) { called = true }) {
		t.Fatal("checkOnce missed the expiry")
	}
	if called {
		t.Fatal("break expiry triggered finalize")
	}
	if tm.Status().Active {
		t.Fatal("timer not reset")
	}
}

func TestStartMonitorStopsOnCancel(t *testing.T) {
	tm := NewTimer()
	_ = tm.Start(time.Millisecond, ModeWork)
	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartMonitor(ctx, tm, MonitorConfig{
			Interval:      5 * time.Millisecond,
			OnWorkExpired: func(context.Context) { fired <- struct{}{} },
		})
		close(done)
	}()
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never fired")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
