package adminengine

import (
	"log/slog"
	"sync"
)

// ReplyQueue is the application-owned destination for Result events
// (§3, §6's "event-driven application interface"). Adapted from
// internal/events.Bus: a non-blocking, drop-on-full delivery channel
// safe for concurrent use. Unlike Bus, the engine is the queue's sole
// producer and a ReplyQueue carries a generation stamp so a Handle that
// outlives its queue (the application closed it and opened a new one,
// e.g. across a reconnect) can be detected and dropped instead of
// delivered to a queue instance nobody is draining.
type ReplyQueue struct {
	mu         sync.Mutex
	ch         chan Result
	generation uint64
	closed     bool
	logger     *slog.Logger
}

// NewReplyQueue creates a queue with the given buffer size. bufSize
// should be large enough to absorb a burst of completions between
// application reads; 64 matches the teacher's default subscriber buffer
// in internal/events.
func NewReplyQueue(bufSize int, logger *slog.Logger) *ReplyQueue {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &ReplyQueue{
		ch:     make(chan Result, bufSize),
		logger: logger,
	}
}

// Results returns the channel the application reads completed Results
// from.
func (q *ReplyQueue) Results() <-chan Result {
	return q.ch
}

// stamp returns the queue's current generation, captured by a Handle at
// submission time for the later staleness check in post.
func (q *ReplyQueue) stamp() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.generation
}

// post delivers r if the queue is still at generation gen and open.
// Non-blocking: if the channel is full, the event is dropped, matching
// Bus.Publish's "slow subscriber misses events rather than blocking
// publishers" contract — here the analogous case is an application that
// isn't draining its reply queue.
func (q *ReplyQueue) post(gen uint64, r Result) {
	q.mu.Lock()
	if q.closed || q.generation != gen {
		q.mu.Unlock()
		if q.logger != nil {
			q.logger.Warn("adminengine: dropping result for stale reply queue",
				"kind", r.Kind.String())
		}
		return
	}
	ch := q.ch
	q.mu.Unlock()

	select {
	case ch <- r:
	default:
		if q.logger != nil {
			q.logger.Warn("adminengine: reply queue full, dropping result",
				"kind", r.Kind.String())
		}
	}
}

// Close marks the queue closed and bumps its generation so any Handle
// still referencing it drops its result instead of delivering to a
// channel nobody drains. Safe to call more than once.
func (q *ReplyQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.generation++
}
