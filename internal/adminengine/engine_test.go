package adminengine

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

// fakeConn satisfies BrokerConn without touching a real broker; only the
// CreateTopics path is exercised in these tests, so nothing else reaches
// the wire.
type fakeConn struct{ id int32 }

func (c *fakeConn) ID() int32 { return c.id }
func (c *fakeConn) CreateTopics(*sarama.CreateTopicsRequest) (*sarama.CreateTopicsResponse, error) {
	return nil, nil
}
func (c *fakeConn) DeleteTopics(*sarama.DeleteTopicsRequest) (*sarama.DeleteTopicsResponse, error) {
	return nil, nil
}
func (c *fakeConn) CreatePartitions(*sarama.CreatePartitionsRequest) (*sarama.CreatePartitionsResponse, error) {
	return nil, nil
}
func (c *fakeConn) AlterConfigs(*sarama.AlterConfigsRequest) (*sarama.AlterConfigsResponse, error) {
	return nil, nil
}
func (c *fakeConn) DescribeConfigs(*sarama.DescribeConfigsRequest) (*sarama.DescribeConfigsResponse, error) {
	return nil, nil
}

// fakeWaiter resolves the controller either immediately or never,
// depending on ready.
type fakeWaiter struct {
	ready bool
	conn  BrokerConn
}

func (w *fakeWaiter) GetBrokerAsync(id int32, n *Notifier) (BrokerConn, bool) {
	if w.ready {
		return w.conn, true
	}
	return nil, false // never triggers; the caller's deadline will fire instead
}

func (w *fakeWaiter) GetControllerAsync(n *Notifier) (BrokerConn, bool) {
	return w.GetBrokerAsync(-1, n)
}

func (w *fakeWaiter) InvalidateController() {}

// fakeAdapter returns a canned Result (or error) for whatever Kind it is
// registered under, optionally sleeping for delay first so tests can
// control the race between a send completing and a timeout firing.
type fakeAdapter struct {
	kind    Kind
	delay   time.Duration
	res     Result
	err     error
}

func (a *fakeAdapter) Kind() Kind { return a.kind }

func (a *fakeAdapter) Do(h *Handle, conn BrokerConn, waiter BrokerWaiter, logger *slog.Logger) (Result, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	return a.res, a.err
}

func newTestEngine(waiter BrokerWaiter, ad Adapter) (*Engine, context.CancelFunc) {
	e := New(waiter, map[Kind]Adapter{ad.Kind(): ad}, nil, 16)
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	return e, cancel
}

func TestEngine_HappyCreateTopics(t *testing.T) {
	waiter := &fakeWaiter{ready: true, conn: &fakeConn{id: 1}}
	ad := &fakeAdapter{
		kind: KindCreateTopics,
		res: Result{
			Topics: []TopicResult{{Topic: "t1", ErrCode: 0}},
		},
	}
	e, cancel := newTestEngine(waiter, ad)
	defer cancel()

	reply := NewReplyQueue(1, nil)
	err := e.NewCreateTopics([]TopicSpec{{Name: "t1", NumPartitions: 3, ReplicationFactor: 1}},
		DefaultOptions(5*time.Second), reply)
	if err != nil {
		t.Fatalf("NewCreateTopics: %v", err)
	}

	select {
	case res := <-reply.Results():
		if res.Err != nil {
			t.Fatalf("unexpected result error: %v", res.Err)
		}
		if len(res.Topics) != 1 || res.Topics[0].Topic != "t1" || res.Topics[0].ErrCode != 0 {
			t.Fatalf("unexpected topics: %+v", res.Topics)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestEngine_TimeoutDuringControllerWait(t *testing.T) {
	waiter := &fakeWaiter{ready: false}
	ad := &fakeAdapter{kind: KindCreateTopics}
	e, cancel := newTestEngine(waiter, ad)
	defer cancel()

	reply := NewReplyQueue(1, nil)
	start := time.Now()
	err := e.NewCreateTopics([]TopicSpec{{Name: "t1", NumPartitions: 1, ReplicationFactor: 1}},
		DefaultOptions(50*time.Millisecond), reply)
	if err != nil {
		t.Fatalf("NewCreateTopics: %v", err)
	}

	select {
	case res := <-reply.Results():
		if res.Err == nil {
			t.Fatal("expected a timeout error, got nil")
		}
		if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
			t.Fatalf("result arrived too late: %v", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestEngine_LateResponseAfterTimeoutIsDropped(t *testing.T) {
	waiter := &fakeWaiter{ready: true, conn: &fakeConn{id: 1}}
	ad := &fakeAdapter{
		kind:  KindCreateTopics,
		delay: 200 * time.Millisecond,
		res:   Result{Topics: []TopicResult{{Topic: "t1", ErrCode: 0}}},
	}
	e, cancel := newTestEngine(waiter, ad)
	defer cancel()

	reply := NewReplyQueue(2, nil)
	err := e.NewCreateTopics([]TopicSpec{{Name: "t1", NumPartitions: 1, ReplicationFactor: 1}},
		DefaultOptions(50*time.Millisecond), reply)
	if err != nil {
		t.Fatalf("NewCreateTopics: %v", err)
	}

	select {
	case res := <-reply.Results():
		if res.Err == nil {
			t.Fatal("expected the TimedOut result, got a success")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}

	// The late response must not produce a second event.
	select {
	case extra := <-reply.Results():
		t.Fatalf("expected no second event, got %+v", extra)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestEngine_ShutdownWithOutstandingRequestsPostsNoResults(t *testing.T) {
	// §8 "Engine shutdown with N outstanding requests": each outstanding
	// handle gets a silent DestroyRequested cleanup, no result event.
	waiter := &fakeWaiter{ready: false} // never resolves; handles stay suspended in WaitController
	ad := &fakeAdapter{kind: KindCreateTopics}
	e := New(waiter, map[Kind]Adapter{ad.Kind(): ad}, nil, 16)
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(runDone)
	}()

	const n = 5
	replies := make([]*ReplyQueue, n)
	for i := range replies {
		replies[i] = NewReplyQueue(1, nil)
		err := e.NewCreateTopics(
			[]TopicSpec{{Name: fmt.Sprintf("t%d", i), NumPartitions: 1, ReplicationFactor: 1}},
			DefaultOptions(time.Hour), replies[i])
		if err != nil {
			t.Fatalf("NewCreateTopics[%d]: %v", i, err)
		}
	}

	// Give the engine goroutine a chance to dequeue each submission and
	// suspend it in WaitController before shutdown runs.
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	for i, reply := range replies {
		select {
		case res := <-reply.Results():
			t.Fatalf("handle %d: unexpected result event on shutdown: %+v", i, res)
		default:
		}
	}
}
