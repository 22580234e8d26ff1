// Package kafkaconn is the broker-connection layer spec.md treats as an
// external collaborator: asynchronous lookup by broker id, asynchronous
// lookup of the current controller, each taking a one-shot notifier
// (adminengine.BrokerWaiter). It is adapted from internal/connwatch's
// per-service Watcher/backoff pattern, generalized from "one named
// service" to "one broker id per live cluster member, plus the
// cluster's current controller," and from connwatch's OnReady
// callback to adminengine's notifier.Trigger wake.
package kafkaconn

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// Conn adapts a *sarama.Broker to adminengine.BrokerConn.
type Conn struct {
	id     int32
	broker *sarama.Broker
}

func (c *Conn) ID() int32 { return c.id }

func (c *Conn) CreateTopics(req *sarama.CreateTopicsRequest) (*sarama.CreateTopicsResponse, error) {
	return c.broker.CreateTopics(req)
}

func (c *Conn) DeleteTopics(req *sarama.DeleteTopicsRequest) (*sarama.DeleteTopicsResponse, error) {
	return c.broker.DeleteTopics(req)
}

func (c *Conn) CreatePartitions(req *sarama.CreatePartitionsRequest) (*sarama.CreatePartitionsResponse, error) {
	return c.broker.CreatePartitions(req)
}

func (c *Conn) AlterConfigs(req *sarama.AlterConfigsRequest) (*sarama.AlterConfigsResponse, error) {
	return c.broker.AlterConfigs(req)
}

func (c *Conn) DescribeConfigs(req *sarama.DescribeConfigsRequest) (*sarama.DescribeConfigsResponse, error) {
	return c.broker.DescribeConfigs(req)
}

// BackoffConfig is connwatch.BackoffConfig's startup/poll schedule,
// copied rather than imported so kafkaconn does not pull in the
// teacher's full connwatch type for a single struct literal.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	PollInterval time.Duration
}

// DefaultBackoff mirrors connwatch.DefaultBackoffConfig's schedule.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		PollInterval: 60 * time.Second,
	}
}

type brokerEntry struct {
	mu      sync.Mutex
	ready   bool
	conn    *Conn
	waiters []*adminengine.Notifier
}

// Pool resolves and holds open connections to cluster brokers, answering
// adminengine's WaitBroker/WaitController states (§4.3). One Pool serves
// an entire Engine.
type Pool struct {
	client sarama.Client
	logger *slog.Logger
	cfg    BackoffConfig

	mu       sync.Mutex
	brokers  map[int32]*brokerEntry
	ctlID    int32
	ctlReady bool
	ctlConn  *Conn
	ctlWait  []*adminengine.Notifier

	watching sync.Map // broker id int32 -> struct{}, one probe goroutine per id
	ctlOnce  sync.Once

	closed closedFlag
}

type closedFlag struct {
	mu sync.Mutex
	v  bool
}

func (f *closedFlag) set(v bool) { f.mu.Lock(); f.v = v; f.mu.Unlock() }
func (f *closedFlag) get() bool  { f.mu.Lock(); defer f.mu.Unlock(); return f.v }

// New wraps an already-configured sarama.Client. Building the client
// itself (brokers list, sarama.Config, auth) is ordinary sarama setup
// left to the caller (cmd/kadmin-demo), since none of it is
// admin-engine-specific.
func New(client sarama.Client, logger *slog.Logger, cfg BackoffConfig) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InitialDelay <= 0 {
		cfg = DefaultBackoff()
	}
	return &Pool{
		client:  client,
		logger:  logger,
		cfg:     cfg,
		brokers: make(map[int32]*brokerEntry),
		ctlID:   -1,
	}
}

// GetBrokerAsync implements adminengine.BrokerWaiter.
func (p *Pool) GetBrokerAsync(id int32, n *adminengine.Notifier) (adminengine.BrokerConn, bool) {
	p.mu.Lock()
	e, ok := p.brokers[id]
	if !ok {
		e = &brokerEntry{}
		p.brokers[id] = e
	}
	p.mu.Unlock()

	e.mu.Lock()
	if e.ready {
		c := e.conn
		e.mu.Unlock()
		return c, true
	}
	n.AddSource("broker-wait")
	e.waiters = append(e.waiters, n)
	e.mu.Unlock()

	p.ensureWatching(id)
	return nil, false
}

// GetControllerAsync implements adminengine.BrokerWaiter.
func (p *Pool) GetControllerAsync(n *adminengine.Notifier) (adminengine.BrokerConn, bool) {
	p.mu.Lock()
	if p.ctlReady {
		c := p.ctlConn
		p.mu.Unlock()
		return c, true
	}
	n.AddSource("controller-wait")
	p.ctlWait = append(p.ctlWait, n)
	p.mu.Unlock()

	p.ctlOnce.Do(func() { go p.watchController() })
	return nil, false
}

// ensureWatching starts exactly one backoff-probing goroutine per broker
// id, the connwatch startup-then-poll shape collapsed into a single loop
// since kafkaconn has no separate "ready" callback consumer beyond the
// waiters slice itself.
func (p *Pool) ensureWatching(id int32) {
	if _, loaded := p.watching.LoadOrStore(id, struct{}{}); loaded {
		return
	}
	go p.watchBroker(id)
}

func (p *Pool) watchBroker(id int32) {
	delay := p.cfg.InitialDelay
	for {
		if p.closed.get() {
			return
		}
		conn, err := p.dialBroker(id)
		if err == nil {
			p.markBrokerReady(id, conn)
			return
		}
		p.logger.Debug("kafkaconn: broker dial failed, retrying",
			"broker", id, "error", err, "next_delay", delay)
		time.Sleep(delay)
		delay = time.Duration(float64(delay) * p.cfg.Multiplier)
		if delay > p.cfg.MaxDelay {
			delay = p.cfg.MaxDelay
		}
	}
}

func (p *Pool) watchController() {
	delay := p.cfg.InitialDelay
	for {
		if p.closed.get() {
			return
		}
		if err := p.client.RefreshController(); err != nil {
			p.logger.Debug("kafkaconn: controller refresh failed, retrying",
				"error", err, "next_delay", delay)
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * p.cfg.Multiplier)
			if delay > p.cfg.MaxDelay {
				delay = p.cfg.MaxDelay
			}
			continue
		}
		b, err := p.client.Controller()
		if err != nil {
			time.Sleep(delay)
			continue
		}
		conn, err := p.openBroker(b)
		if err != nil {
			time.Sleep(delay)
			continue
		}
		p.markControllerReady(b.ID(), conn)
		return
	}
}

func (p *Pool) dialBroker(id int32) (*Conn, error) {
	b, err := p.client.Broker(id)
	if err != nil {
		return nil, err
	}
	return p.openBroker(b)
}

func (p *Pool) openBroker(b *sarama.Broker) (*Conn, error) {
	connected, err := b.Connected()
	if err != nil {
		return nil, err
	}
	if !connected {
		if err := b.Open(p.client.Config()); err != nil && !errors.Is(err, sarama.ErrAlreadyConnected) {
			return nil, err
		}
		if _, err := b.Connected(); err != nil {
			return nil, err
		}
	}
	return &Conn{id: b.ID(), broker: b}, nil
}

func (p *Pool) markBrokerReady(id int32, conn *Conn) {
	p.mu.Lock()
	e := p.brokers[id]
	p.mu.Unlock()

	e.mu.Lock()
	e.ready = true
	e.conn = conn
	waiters := e.waiters
	e.waiters = nil
	e.mu.Unlock()

	for _, n := range waiters {
		n.Trigger(nil, "broker-up")
	}
}

func (p *Pool) markControllerReady(id int32, conn *Conn) {
	p.mu.Lock()
	p.ctlID = id
	p.ctlReady = true
	p.ctlConn = conn
	waiters := p.ctlWait
	p.ctlWait = nil
	p.mu.Unlock()

	for _, n := range waiters {
		n.Trigger(nil, "controller-up")
	}
}

// InvalidateController forces the next GetControllerAsync to re-resolve,
// for use after a NOT_CONTROLLER error is observed on a response (the
// controller identity "may shift at any time," GLOSSARY).
func (p *Pool) InvalidateController() {
	p.mu.Lock()
	p.ctlReady = false
	p.ctlConn = nil
	p.mu.Unlock()
	p.ctlOnce = sync.Once{}
}

// Close stops all background probing. In-flight broker connections are
// left open; sarama.Client owns their lifecycle.
func (p *Pool) Close() {
	p.closed.set(true)
}
