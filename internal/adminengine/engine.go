package adminengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine is the single-threaded cooperative state-machine runner (§2, §5).
// Exactly one goroutine — the one running Run — ever mutates a Handle
// after submission; every other goroutine that touches a Handle does so
// only through its Notifier. Grounded on the teacher's cmd/thane
// event-loop shape (a single consumer goroutine draining a work channel)
// generalized with the explicit shutdown-drains-outstanding-work
// behavior §4.6/§5 requires, which the teacher's simpler loop doesn't
// need since it has no in-flight notifier-suspended work to reclaim.
type Engine struct {
	workq    chan *Handle
	waiter   BrokerWaiter
	adapters map[Kind]Adapter
	throttle *ThrottleTracker
	logger   *slog.Logger
	now      func() time.Time

	live sync.Map // id string -> *Handle, for shutdown's sweep

	shuttingDown atomic.Bool
}

// New creates an engine. adapters must have an entry for every Kind the
// caller intends to submit; workqSize sizes the multi-producer work
// queue (§GLOSSARY "Work queue") — submissions and notifier Triggers
// both post onto it, so it should be comfortably larger than the
// expected number of concurrently in-flight requests.
func New(waiter BrokerWaiter, adapters map[Kind]Adapter, logger *slog.Logger, workqSize int) *Engine {
	if workqSize <= 0 {
		workqSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		workq:    make(chan *Handle, workqSize),
		waiter:   waiter,
		adapters: adapters,
		throttle: NewThrottleTracker(),
		logger:   logger,
		now:      time.Now,
	}
}

// Throttle exposes the engine-wide throttle-time accounting (§4.4 rule 5).
func (e *Engine) Throttle() *ThrottleTracker { return e.throttle }

// Run drains the work queue until ctx is canceled, at which point it
// performs the shutdown sweep of §5's "Cancellation" and §8's "Engine
// shutdown with N outstanding requests" and returns.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case h := <-e.workq:
			e.runWorker(h)
		}
	}
}

// shutdown marks the engine down and wakes every outstanding handle with
// DestroyRequested, then drains whatever that produces on the work
// queue. Each woken handle's first precondition check (runWorker) sends
// it straight to destroy without a result event, per §5 "Cancellation"
// and §8's "N outstanding requests -> N silent cleanups, no result
// events."
func (e *Engine) shutdown() {
	e.shuttingDown.Store(true)
	e.live.Range(func(_, v any) bool {
		h := v.(*Handle)
		h.notifier.Trigger(ErrDestroyed, "shutdown")
		return true
	})
	for {
		select {
		case h := <-e.workq:
			e.runWorker(h)
		default:
			return
		}
	}
}

// submit finishes constructing a validated handle and hands it to the
// work queue (§4.1's constructor contract). Called by the five New*
// functions below after kind-specific validation and arg-copying.
func (e *Engine) submit(h *Handle) {
	h.notifier = newNotifier(h, e.workq, e.logger)
	e.live.Store(h.id, h)
	e.workq <- h
}

// forget removes a handle from the live set. Called once, from destroy.
func (e *Engine) forget(h *Handle) {
	e.live.Delete(h.id)
}

// NewCreateTopics submits a CreateTopics request (§4.1, §6).
func (e *Engine) NewCreateTopics(args []TopicSpec, opts Options, reply *ReplyQueue) error {
	if err := opts.validate(KindCreateTopics); err != nil {
		return err
	}
	if len(args) == 0 {
		return wrapInvalid("args must be non-empty")
	}
	cp := make([]TopicSpec, len(args))
	for i, a := range args {
		cp[i] = a.clone()
	}
	h := newHandle(KindCreateTopics, opts, reply, e.now())
	h.createTopics = cp
	e.submit(h)
	return nil
}

// NewDeleteTopics submits a DeleteTopics request (§4.1, §6).
func (e *Engine) NewDeleteTopics(topics []string, opts Options, reply *ReplyQueue) error {
	if err := opts.validate(KindDeleteTopics); err != nil {
		return err
	}
	if len(topics) == 0 {
		return wrapInvalid("args must be non-empty")
	}
	cp := make([]string, len(topics))
	copy(cp, topics)
	h := newHandle(KindDeleteTopics, opts, reply, e.now())
	h.deleteTopics = cp
	e.submit(h)
	return nil
}

// NewCreatePartitions submits a CreatePartitions request (§4.1, §6).
func (e *Engine) NewCreatePartitions(args []PartitionsSpec, opts Options, reply *ReplyQueue) error {
	if err := opts.validate(KindCreatePartitions); err != nil {
		return err
	}
	if len(args) == 0 {
		return wrapInvalid("args must be non-empty")
	}
	cp := make([]PartitionsSpec, len(args))
	for i, a := range args {
		cp[i] = a.clone()
	}
	h := newHandle(KindCreatePartitions, opts, reply, e.now())
	h.createPartitions = cp
	e.submit(h)
	return nil
}

// NewAlterConfigs submits an AlterConfigs request, applying the
// broker-resource pre-flight of §4.4 before the handle is ever enqueued.
func (e *Engine) NewAlterConfigs(args []AlterResourceSpec, opts Options, reply *ReplyQueue) error {
	if err := opts.validate(KindAlterConfigs); err != nil {
		return err
	}
	if len(args) == 0 {
		return wrapInvalid("args must be non-empty")
	}
	types := make([]ResourceType, len(args))
	names := make([]string, len(args))
	for i, a := range args {
		types[i], names[i] = a.ResourceType, a.Name
	}
	target, err := brokerResourcePreflight(types, names)
	if err != nil {
		return err
	}
	cp := make([]AlterResourceSpec, len(args))
	for i, a := range args {
		cp[i] = a.clone()
	}
	h := newHandle(KindAlterConfigs, opts, reply, e.now())
	h.alterConfigs = cp
	if target >= 0 {
		h.targetBroker = target
	}
	e.submit(h)
	return nil
}

// NewDescribeConfigs submits a DescribeConfigs request, applying the
// same broker-resource pre-flight as AlterConfigs (§4.4).
func (e *Engine) NewDescribeConfigs(args []DescribeResourceSpec, opts Options, reply *ReplyQueue) error {
	if err := opts.validate(KindDescribeConfigs); err != nil {
		return err
	}
	if len(args) == 0 {
		return wrapInvalid("args must be non-empty")
	}
	types := make([]ResourceType, len(args))
	names := make([]string, len(args))
	for i, a := range args {
		types[i], names[i] = a.ResourceType, a.Name
	}
	target, err := brokerResourcePreflight(types, names)
	if err != nil {
		return err
	}
	cp := make([]DescribeResourceSpec, len(args))
	for i, a := range args {
		cp[i] = a.clone()
	}
	h := newHandle(KindDescribeConfigs, opts, reply, e.now())
	h.describeConfigs = cp
	if target >= 0 {
		h.targetBroker = target
	}
	e.submit(h)
	return nil
}

func (e *Engine) adapterFor(k Kind) (Adapter, error) {
	a, ok := e.adapters[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAPI, k)
	}
	return a, nil
}
