package adminengine

import (
	"sync"
	"time"
)

// requestTimer is the one-shot timeout timer a Handle owns from Init
// until Destroy (§4.5). Adapted from internal/scheduler's
// map[string]*time.Timer bookkeeping — here there is exactly one timer
// per owner instead of one per scheduled task, so a bare *time.Timer
// plus a "stop already called" bit replaces the map.
type requestTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

// armTimer starts a one-shot timer that calls fire after d. Arming is
// only ever done once per Handle, from Init (§4.5).
func armTimer(d time.Duration, fire func()) *requestTimer {
	rt := &requestTimer{}
	rt.t = time.AfterFunc(d, fire)
	return rt
}

// stop cancels the timer and reports whether the callback had not yet
// fired (and therefore whether the caller must balance a notifier ref
// that the timer was holding on the callback's behalf, per §4.1/§4.5).
func (rt *requestTimer) stop() (hadNotFired bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.stopped {
		return false
	}
	rt.stopped = true
	return rt.t.Stop()
}
