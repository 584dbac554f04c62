package app

import (
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func newTestRetry() (*readRetry, *logtest.Hook, *time.Time, *[]time.Duration) {
	logger, hook := logtest.NewNullLogger()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var waits []time.Duration
	r := newReadRetry(log.NewEntry(logger))
	r.now = func() time.Time { return clock }
	r.wait = func(_ context.Context, d time.Duration) bool {
		waits = append(waits, d)
		clock = clock.Add(d)
		return true
	}
	return r, hook, &clock, &waits
}

func TestReadRetryBacksOff(t *testing.T) {
	r, _, _, waits := newTestRetry()
	ioErr := errors.New("i2c: remote I/O error")

	for i := 0; i < 10; i++ {
		if !r.failed(context.Background(), ioErr) {
			t.Fatalf("failed() = false on attempt %d", i)
		}
	}
	want := []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond,
		160 * time.Millisecond, 320 * time.Millisecond, 640 * time.Millisecond,
		time.Second, time.Second, time.Second,
	}
	if len(*waits) != len(want) {
		t.Fatalf("waited %d times, want %d", len(*waits), len(want))
	}
	for i, d := range want {
		if (*waits)[i] != d {
			t.Errorf("wait %d = %v, want %v", i, (*waits)[i], d)
		}
	}

	r.ok()
	r.failed(context.Background(), ioErr)
	if got := (*waits)[len(*waits)-1]; got != retryMinDelay {
		t.Errorf("first wait after recovery = %v, want %v", got, retryMinDelay)
	}
}

func TestReadRetryLimitsWarnings(t *testing.T) {
	r, hook, _, _ := newTestRetry()
	ioErr := errors.New("i2c: remote I/O error")

	// 10ms+20ms+...+640ms is 1.27s, then one second per failure: the 20
	// failures span about 14s and log at 0s, ~5.3s and ~10.3s.
	for i := 0; i < 20; i++ {
		r.failed(context.Background(), ioErr)
	}
	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel {
			warnings++
		}
	}
	if warnings != 3 {
		t.Errorf("logged %d warnings for 20 failures, want 3", warnings)
	}

	hook.Reset()
	r.ok()
	if e := hook.LastEntry(); e == nil || e.Level != log.InfoLevel {
		t.Errorf("recovery entry = %v, want an info line", e)
	}
	r.ok()
	if n := len(hook.AllEntries()); n != 1 {
		t.Errorf("ok() without failures logged, entries = %d", n)
	}
}

func TestReadRetryStopsOnCancel(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	r := newReadRetry(log.NewEntry(logger))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r.failed(ctx, errors.New("bus fault")) {
		t.Error("failed() = true with a cancelled context")
	}
}
