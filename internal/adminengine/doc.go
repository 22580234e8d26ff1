// Package adminengine implements the asynchronous administrative-request
// engine for the Kafka client: a single-threaded cooperative state machine
// that owns each in-flight CreateTopics, DeleteTopics, CreatePartitions,
// AlterConfigs, or DescribeConfigs request from submission through either
// a posted result or a timeout.
//
// Applications never block on a request. Submitting one of the New*
// constructors enqueues a Handle on the Engine's work queue and returns
// immediately; the Engine's own goroutine drains the queue, advances each
// Handle through its states, and posts a Result on the caller-supplied
// ReplyQueue. Timer arming and every state transition happen on that one
// goroutine. The wire send and response parse (an Adapter.Do call) run on
// a separate goroutine per request, and broker/controller discovery runs
// inside the BrokerWaiter; these touch a Handle only after taking it from
// its Notifier and hand it back through the work queue, so Handle fields
// need no mutex once they're enqueued.
package adminengine
