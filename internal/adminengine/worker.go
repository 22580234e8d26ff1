package adminengine

import (
	"errors"
	"time"
)

// runWorker is one dequeue of h (§4.6). It loops tail-call style through
// states that "immediately re-enter," and returns ("keep" in the spec's
// words) the moment a state suspends the handle into a notifier or a
// send goroutine. Every loop iteration re-checks the four preconditions,
// matching the source's goto-redo structure: a trigger that lands
// mid-flight (shutdown, a transport error) must be observed the next
// time the handle is examined, which in this Go shape is the next
// iteration of this same loop, not just the next dequeue.
func (e *Engine) runWorker(h *Handle) {
	for {
		if e.shuttingDown.Load() {
			e.destroySilently(h)
			return
		}
		if errors.Is(h.lastErr, ErrDestroyed) {
			e.destroySilently(h)
			return
		}
		if h.lastErr != nil {
			e.postFailure(h, h.lastErr)
			e.destroySilently(h)
			return
		}
		if !h.deadline.IsZero() && !e.now().Before(h.deadline) {
			e.postFailure(h, ErrTimedOut)
			e.destroySilently(h)
			return
		}

		switch h.st {
		case stateInit:
			e.enterInit(h)
			continue

		case stateWaitBroker:
			if !e.enterWaitBroker(h) {
				return
			}
			continue

		case stateWaitController:
			if !e.enterWaitController(h) {
				return
			}
			continue

		case stateConstructRequest:
			e.enterConstructRequest(h)
			return

		case stateWaitResponse:
			e.enterWaitResponse(h)
			return

		default:
			e.postFailure(h, ErrBadMessage)
			e.destroySilently(h)
			return
		}
	}
}

// enterInit implements §4.6's Init row: arm the deadline timer, resolve
// the fixed target broker option if one was given, and choose the next
// wait state.
func (e *Engine) enterInit(h *Handle) {
	h.notifier.AddSource("timeout timer")
	d := h.deadline.Sub(e.now())
	h.timer = armTimer(d, func() {
		h.notifier.Trigger(ErrTimedOut, "timer timeout")
	})

	if h.opts.Broker >= 0 {
		h.targetBroker = h.opts.Broker
	}

	if h.targetBroker != -1 {
		h.st = stateWaitBroker
	} else {
		h.st = stateWaitController
	}
}

// enterWaitBroker implements §4.6's WaitBroker row. Returns false if the
// handle must suspend (the waiter armed the notifier instead of handing
// back a connection).
func (e *Engine) enterWaitBroker(h *Handle) bool {
	h.notifier.Reenable(h, e.workq)
	conn, ok := e.waiter.GetBrokerAsync(h.targetBroker, h.notifier)
	if !ok {
		return false
	}
	h.conn = conn
	h.st = stateConstructRequest
	return true
}

// enterWaitController implements §4.6's WaitController row.
func (e *Engine) enterWaitController(h *Handle) bool {
	h.notifier.Reenable(h, e.workq)
	conn, ok := e.waiter.GetControllerAsync(h.notifier)
	if !ok {
		return false
	}
	h.conn = conn
	h.st = stateConstructRequest
	return true
}

// enterConstructRequest implements §4.6's ConstructRequest row. The
// broker round trip (request builder, wire send, response parse) is
// sarama's synchronous Broker.<RPC> call, so it runs on its own
// goroutine rather than blocking the single engine goroutine; the
// notifier's Disable/Trigger race is what lets a late completion here
// lose cleanly to an already-fired timeout (§4.2, §8 scenario 6).
func (e *Engine) enterConstructRequest(h *Handle) {
	adapter, err := e.adapterFor(h.kind)
	if err != nil {
		e.cancelSend(h, err)
		return
	}

	conn := h.conn
	h.conn = nil
	h.notifier.AddSource("send")
	h.st = stateWaitResponse

	go func(n *Notifier, k Kind) {
		res, sendErr := adapter.Do(h, conn, e.waiter, e.logger)
		if res.ThrottleMs > 0 {
			e.throttle.Observe(time.Duration(res.ThrottleMs) * time.Millisecond)
		}
		woken := n.Disable()
		if woken == nil {
			// The timeout (or shutdown) already won this arming;
			// the response is dropped per §4.2/§8 scenario 6.
			n.DelSource("send")
			return
		}
		woken.replyBuf = res
		woken.lastErr = sendErr
		e.workq <- woken
		n.DelSource("send")
	}(h.notifier, h.kind)
}

// cancelSend handles a builder-time rejection that the adapter can
// detect before any I/O — e.g. an unregistered adapter. Mirrors §4.4's
// "If the builder fails, del_source('send'), post a failure result, and
// transition to Destroy," collapsed into the same call since nothing was
// ever dispatched to a goroutine.
func (e *Engine) cancelSend(h *Handle, err error) {
	e.postFailure(h, err)
	e.destroySilently(h)
}

// enterWaitResponse implements §4.6's WaitResponse row. By the time the
// worker observes this state, h.lastErr/h.replyBuf were already
// populated by the send goroutine in enterConstructRequest, or by a
// transport/timeout trigger — the precondition checks at the top of
// runWorker handle the latter two before dispatch ever reaches here, so
// only the success case remains.
func (e *Engine) enterWaitResponse(h *Handle) {
	res, ok := h.replyBuf.(Result)
	if !ok {
		e.postFailure(h, ErrBadMessage)
		e.destroySilently(h)
		return
	}
	e.post(h, res)
	e.destroySilently(h)
}

// post delivers a successful Result, stamping the caller-opaque value
// and reply kind (§3 "Result Object").
func (e *Engine) post(h *Handle, res Result) {
	res.Kind = h.kind
	res.Opaque = h.opts.Opaque
	h.reply.post(h.replyGen, res)
}

// postFailure delivers a request-level fatal result (§7) — no
// per-element results, just the error.
func (e *Engine) postFailure(h *Handle, err error) {
	h.reply.post(h.replyGen, Result{
		Kind:   h.kind,
		Opaque: h.opts.Opaque,
		Err:    err,
	})
}

// destroySilently implements the Destroy terminal transition of §4.6:
// stop the timer (balancing the notifier ref if the callback had not
// yet fired), clear the handle's back-reference to its notifier so a
// late wake finds nothing, release this engine's bookkeeping entry, and
// let the handle become garbage.
func (e *Engine) destroySilently(h *Handle) {
	if h.timer != nil {
		if hadNotFired := h.timer.stop(); hadNotFired {
			h.notifier.DelSource("timeout timer")
		}
	}
	h.notifier.Disable()
	h.notifier.DelSource("handle")
	h.st = stateDestroy
	e.forget(h)
}
