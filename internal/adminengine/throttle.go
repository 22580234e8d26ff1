package adminengine

import (
	"sync"
	"time"
)

// throttleWindow is how long a reported throttle time stays "current"
// before a fresh window starts. Adapted from internal/mqtt's DailyTokens,
// whose counters reset on a local-midnight rollover; here the rollover
// is a short fixed window (reset once it has been open this long)
// instead of a calendar day, since broker
// throttle advice goes stale far faster than a day.
const throttleWindow = 10 * time.Second

// ThrottleTracker accumulates the broker-advised throttle time read from
// admin responses (§4.4 rule 5, GLOSSARY "Throttle time"). Safe for
// concurrent use: responses are parsed on whichever goroutine delivered
// them before the result is handed back to the worker.
type ThrottleTracker struct {
	mu         sync.Mutex
	windowMax  time.Duration
	windowOpen time.Time
	now        func() time.Time
}

// NewThrottleTracker creates a tracker using time.Now for its clock.
func NewThrottleTracker() *ThrottleTracker {
	return &ThrottleTracker{now: time.Now}
}

// Observe records a throttle time read from one response.
func (t *ThrottleTracker) Observe(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()
	if d > t.windowMax {
		t.windowMax = d
	}
}

// Current returns the largest throttle time observed in the current
// window, resetting first if the window has elapsed.
func (t *ThrottleTracker) Current() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()
	return t.windowMax
}

// maybeReset zeroes the window if throttleWindow has elapsed since it
// opened. Must be called with t.mu held.
func (t *ThrottleTracker) maybeReset() {
	now := t.now()
	if now.Sub(t.windowOpen) >= throttleWindow {
		t.windowMax = 0
		t.windowOpen = now
	}
}
