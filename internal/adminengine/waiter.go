package adminengine

import (
	"log/slog"

	"github.com/IBM/sarama"
)

// BrokerConn is a live connection to one broker, narrowed to the five
// synchronous RPCs an admin adapter can issue against it. Implemented by
// internal/kafkaconn.Conn, which wraps a *sarama.Broker. Kept as an
// interface here (rather than importing kafkaconn directly) so
// kafkaconn is free to depend on adminengine's types without creating
// an import cycle.
type BrokerConn interface {
	ID() int32
	CreateTopics(*sarama.CreateTopicsRequest) (*sarama.CreateTopicsResponse, error)
	DeleteTopics(*sarama.DeleteTopicsRequest) (*sarama.DeleteTopicsResponse, error)
	CreatePartitions(*sarama.CreatePartitionsRequest) (*sarama.CreatePartitionsResponse, error)
	AlterConfigs(*sarama.AlterConfigsRequest) (*sarama.AlterConfigsResponse, error)
	DescribeConfigs(*sarama.DescribeConfigsRequest) (*sarama.DescribeConfigsResponse, error)
}

// BrokerWaiter resolves broker and controller connections, synchronously
// when already known and asynchronously (by arming n) otherwise. This is
// the WaitBroker/WaitController collaborator of §4.3, grounded on
// internal/connwatch's Watcher: connwatch polls a single endpoint with
// backoff and fires OnReady once; a BrokerWaiter multiplexes that same
// idea over the whole cluster map and answers with "already have it" or
// "armed, you'll be woken" instead of a callback, since the caller here
// is a notifier slot rather than a long-lived subscriber.
type BrokerWaiter interface {
	// GetBrokerAsync returns the connection for id if already established.
	// Otherwise it arranges for n.Trigger(nil, "broker") once the broker
	// becomes reachable (or n.Trigger(err, "broker") if discovery itself
	// fails) and returns (nil, false).
	GetBrokerAsync(id int32, n *Notifier) (BrokerConn, bool)

	// GetControllerAsync is GetBrokerAsync for the current cluster
	// controller, whose identity itself may require a metadata round
	// trip before the broker connection can be resolved.
	GetControllerAsync(n *Notifier) (BrokerConn, bool)

	// InvalidateController forces the next GetControllerAsync to
	// re-resolve, for use once an adapter observes a NOT_CONTROLLER
	// response — the controller identity "may shift at any time"
	// (GLOSSARY).
	InvalidateController()
}

// Adapter builds and normalizes the wire exchange for one Kind. The five
// concrete adapters (internal/adminengine/adapters) each pair a
// sarama request builder with a response parser that enforces §4.4's
// per-API normalization rules; Do is what ConstructRequest/WaitResponse
// actually call, on a goroutine spawned by the worker so the single
// event-loop goroutine is never blocked on broker I/O. waiter lets an
// adapter invalidate a stale controller; logger carries the engine's
// slog.Logger so an adapter can emit the warnings §8's testable
// properties require (e.g. skipping an unknown resource type).
type Adapter interface {
	Kind() Kind
	Do(h *Handle, conn BrokerConn, waiter BrokerWaiter, logger *slog.Logger) (Result, error)
}
