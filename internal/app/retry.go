package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	retryMinDelay    = 10 * time.Millisecond
	retryMaxDelay    = time.Second
	retryLogInterval = 5 * time.Second
)

// readRetry paces a read loop through a run of bus errors. Each consecutive
// failure doubles the pause up to retryMaxDelay. The first failure of a run
// is logged, then at most one warning per retryLogInterval.
type readRetry struct {
	logger   *log.Entry
	delay    time.Duration
	failures int
	lastLog  time.Time

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) bool
}

func newReadRetry(logger *log.Entry) *readRetry {
	return &readRetry{logger: logger, now: time.Now, wait: sleepCtx}
}

// failed records err and waits before the next attempt. It returns false
// if ctx ended while waiting.
func (r *readRetry) failed(ctx context.Context, err error) bool {
	r.failures++
	now := r.now()
	if r.failures == 1 || now.Sub(r.lastLog) >= retryLogInterval {
		r.lastLog = now
		r.logger.Warnf("read: %v (%d consecutive failures)", err, r.failures)
	}

	switch {
	case r.delay == 0:
		r.delay = retryMinDelay
	case r.delay < retryMaxDelay:
		r.delay = min(2*r.delay, retryMaxDelay)
	}
	return r.wait(ctx, r.delay)
}

// ok ends a run of failures.
func (r *readRetry) ok() {
	if r.failures > 0 {
		r.logger.Infof("read: recovered after %d failures", r.failures)
	}
	r.failures = 0
	r.delay = 0
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
