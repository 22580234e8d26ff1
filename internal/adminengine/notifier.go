package adminengine

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier is the one-shot rendezvous ("eonce" in §4.2) that lets several
// independent wake sources — the timeout timer, a broker-up signal, a
// response arriving on its own goroutine — race to wake the worker
// exactly once per arming. It is grounded on the same
// register-before-send / look-up-on-arrival / first-match-wins shape as
// the teacher's internal/homeassistant WSClient.sendAndWait/readLoop
// pending-map pair, generalized from "one response channel per message
// id" to a ref-counted payload slot because here multiple distinct kinds
// of source, not just one response, must be able to win the race.
//
// Every exported method is safe to call from any goroutine except
// Disable, which is engine-thread-only (§4.2).
type Notifier struct {
	mu      sync.Mutex
	refs    int
	handle  *Handle
	workq   chan<- *Handle
	present bool

	logger *slog.Logger
}

// newNotifier creates a notifier with ref-count 1 and the given payload.
func newNotifier(h *Handle, workq chan<- *Handle, logger *slog.Logger) *Notifier {
	return &Notifier{
		refs:    1,
		handle:  h,
		workq:   workq,
		present: true,
		logger:  logger,
	}
}

// AddSource increments the ref-count. Call before promising a later
// Trigger or DelSource. tag is for diagnostics only.
func (n *Notifier) AddSource(tag string) {
	n.mu.Lock()
	n.refs++
	r := n.refs
	n.mu.Unlock()
	n.trace("add_source", tag, r)
}

// DelSource decrements the ref-count. Nothing is released when it
// reaches zero; the notifier's memory is reclaimed by the garbage
// collector once no holder references it.
func (n *Notifier) DelSource(tag string) {
	n.mu.Lock()
	n.refs--
	r := n.refs
	n.mu.Unlock()
	n.trace("del_source", tag, r)
}

// Reenable re-installs the payload slot for the next round-trip to a
// waiter. Called by the worker on every new entry to WaitBroker or
// WaitController, since each previous Trigger cleared the slot.
func (n *Notifier) Reenable(h *Handle, workq chan<- *Handle) {
	n.mu.Lock()
	n.handle = h
	n.workq = workq
	n.present = true
	n.mu.Unlock()
}

// Trigger atomically takes the payload, if still present, and posts the
// handle onto its work queue with lastErr set to err. If the payload was
// already taken — some other source won the race, or the notifier is
// being dismantled — Trigger just decrements the ref-count it is
// implicitly holding on behalf of its caller and returns. Safe to call
// from any goroutine, any number of times per arming; only the first
// call per arming has any effect beyond bookkeeping.
func (n *Notifier) Trigger(err error, reason string) {
	n.mu.Lock()
	h := n.handle
	workq := n.workq
	taken := n.present
	if taken {
		n.handle = nil
		n.workq = nil
		n.present = false
	}
	n.mu.Unlock()

	if !taken {
		n.trace("trigger-late", reason, -1)
		n.DelSource(reason)
		return
	}

	n.trace("trigger", reason, -1)
	h.lastErr = err
	workq <- h
	n.DelSource(reason)
}

// Disable atomically takes and returns the payload handle, or nil if the
// slot was already empty. It exists alongside Trigger for callers that
// need to attach data to the handle (a reply buffer) before the handle
// is re-posted rather than just flagging an error code: the response
// callback calls Disable, and only if it gets a non-nil handle back does
// it set replyBuf/lastErr and enqueue the handle itself. A nil return
// means some other source — almost always the timeout timer — already
// won the wake, and the response is dropped (§8 "late response" case).
func (n *Notifier) Disable() *Handle {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.present {
		return nil
	}
	h := n.handle
	n.handle = nil
	n.workq = nil
	n.present = false
	return h
}

func (n *Notifier) trace(op, tag string, refs int) {
	if n.logger == nil {
		return
	}
	n.logger.Log(context.Background(), levelTrace, "notifier "+op, "tag", tag, "refs", refs)
}
