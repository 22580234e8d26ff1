package adminengine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// state is the Request Handle's position in the worker state machine (§4.6).
type state int

const (
	stateInit state = iota
	stateWaitBroker
	stateWaitController
	stateConstructRequest
	stateWaitResponse
	stateDestroy
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateWaitBroker:
		return "WaitBroker"
	case stateWaitController:
		return "WaitController"
	case stateConstructRequest:
		return "ConstructRequest"
	case stateWaitResponse:
		return "WaitResponse"
	case stateDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// AlterConfigOp is the incremental-alter operation for one config entry.
// The AlterConfigs adapter does not read it: every entry is sent as a
// plain name/value pair, whatever Op and Options.Incremental are set to.
type AlterConfigOp int

const (
	OpSet AlterConfigOp = iota
	OpDelete
	OpAppend
	OpSubtract
)

// TopicSpec is one element of a CreateTopics request.
type TopicSpec struct {
	Name              string
	NumPartitions     int32
	ReplicationFactor int16
	// ReplicaAssignment, when non-empty, overrides NumPartitions/ReplicationFactor
	// with an explicit partition->replica-broker-ids mapping.
	ReplicaAssignment map[int32][]int32
	Configs           map[string]string
}

func (t TopicSpec) clone() TopicSpec {
	c := t
	if t.ReplicaAssignment != nil {
		c.ReplicaAssignment = make(map[int32][]int32, len(t.ReplicaAssignment))
		for k, v := range t.ReplicaAssignment {
			vv := make([]int32, len(v))
			copy(vv, v)
			c.ReplicaAssignment[k] = vv
		}
	}
	if t.Configs != nil {
		c.Configs = make(map[string]string, len(t.Configs))
		for k, v := range t.Configs {
			c.Configs[k] = v
		}
	}
	return c
}

// PartitionsSpec is one element of a CreatePartitions request.
type PartitionsSpec struct {
	Topic             string
	TotalCount        int32
	ReplicaAssignment [][]int32
}

func (p PartitionsSpec) clone() PartitionsSpec {
	c := p
	if p.ReplicaAssignment != nil {
		c.ReplicaAssignment = make([][]int32, len(p.ReplicaAssignment))
		for i, row := range p.ReplicaAssignment {
			r := make([]int32, len(row))
			copy(r, row)
			c.ReplicaAssignment[i] = r
		}
	}
	return c
}

// AlterConfigEntry is one key/value/operation triple in an AlterConfigs request.
type AlterConfigEntry struct {
	Name  string
	Value string
	Op    AlterConfigOp // not read by the AlterConfigs adapter
}

// AlterResourceSpec is one element of an AlterConfigs request.
type AlterResourceSpec struct {
	ResourceType ResourceType
	Name         string
	Entries      []AlterConfigEntry
}

func (a AlterResourceSpec) clone() AlterResourceSpec {
	c := a
	if a.Entries != nil {
		c.Entries = make([]AlterConfigEntry, len(a.Entries))
		copy(c.Entries, a.Entries)
	}
	return c
}

// DescribeResourceSpec is one element of a DescribeConfigs request. An
// empty ConfigNames means "all configs for this resource".
type DescribeResourceSpec struct {
	ResourceType ResourceType
	Name         string
	ConfigNames  []string
}

func (d DescribeResourceSpec) clone() DescribeResourceSpec {
	c := d
	if d.ConfigNames != nil {
		c.ConfigNames = make([]string, len(d.ConfigNames))
		copy(c.ConfigNames, d.ConfigNames)
	}
	return c
}

// Handle is the per-request heap-allocated record the worker reads and
// mutates. Owned by exactly one component at a time: the engine's work
// queue, the worker itself (mid-invocation), a notifier's pending-wake
// slot, or — transiently, never observed by application code — a posted
// Result on the ReplyQueue (§3 invariants).
type Handle struct {
	id   string
	kind Kind

	// Args, by Kind. Exactly one of these is non-nil/non-empty for a
	// given Handle; which one is determined by kind.
	createTopics     []TopicSpec
	deleteTopics     []string
	createPartitions []PartitionsSpec
	alterConfigs     []AlterResourceSpec
	describeConfigs  []DescribeResourceSpec

	opts         Options
	targetBroker int32 // -1 = controller
	deadline     time.Time

	st    state
	timer *requestTimer

	notifier *Notifier

	// replyBuf/lastErr are populated transiently by a response callback
	// or the timer and consumed on the worker's next invocation.
	replyBuf any
	lastErr  error

	conn BrokerConn // held only between ConstructRequest's lookup and its send

	reply    *ReplyQueue
	replyGen uint64 // reply's generation at submission time, for staleness checks
}

func newHandle(kind Kind, opts Options, reply *ReplyQueue, now time.Time) *Handle {
	targetBroker := int32(-1)
	if opts.Broker >= 0 {
		targetBroker = opts.Broker
	}
	return &Handle{
		id:           uuid.NewString(),
		kind:         kind,
		opts:         opts,
		targetBroker: targetBroker,
		deadline:     now.Add(opts.RequestTimeout),
		st:           stateInit,
		reply:        reply,
		replyGen:     reply.stamp(),
	}
}

// Kind reports the admin API this handle was submitted for.
func (h *Handle) Kind() Kind { return h.kind }

// Options returns the options snapshot taken at submission (§3: immutable
// after submission).
func (h *Handle) Options() Options { return h.opts }

// TargetBroker returns -1 for "the controller" or the resolved broker id.
func (h *Handle) TargetBroker() int32 { return h.targetBroker }

// CreateTopicsArgs is the read-only Args view an Adapter parses against.
// Valid only when Kind() == KindCreateTopics.
func (h *Handle) CreateTopicsArgs() []TopicSpec { return h.createTopics }

// DeleteTopicsArgs is the read-only Args view an Adapter parses against.
// Valid only when Kind() == KindDeleteTopics.
func (h *Handle) DeleteTopicsArgs() []string { return h.deleteTopics }

// CreatePartitionsArgs is the read-only Args view an Adapter parses
// against. Valid only when Kind() == KindCreatePartitions.
func (h *Handle) CreatePartitionsArgs() []PartitionsSpec { return h.createPartitions }

// AlterConfigsArgs is the read-only Args view an Adapter parses against.
// Valid only when Kind() == KindAlterConfigs.
func (h *Handle) AlterConfigsArgs() []AlterResourceSpec { return h.alterConfigs }

// DescribeConfigsArgs is the read-only Args view an Adapter parses
// against. Valid only when Kind() == KindDescribeConfigs.
func (h *Handle) DescribeConfigsArgs() []DescribeResourceSpec { return h.describeConfigs }

// brokerResourcePreflight implements §4.4's "Broker-resource pre-flight":
// at most one Broker-type resource may appear in Args for AlterConfigs and
// DescribeConfigs; if exactly one does, its name (parsed as a signed
// integer) becomes the target broker id.
func brokerResourcePreflight(resourceTypes []ResourceType, names []string) (targetBroker int32, err error) {
	target := int32(-1)
	found := false
	for i, rt := range resourceTypes {
		if rt != ResourceBroker && rt != ResourceBrokerLogger {
			continue
		}
		if found {
			return -1, ErrConflict
		}
		found = true
		id, convErr := strconv.ParseInt(names[i], 10, 32)
		if convErr != nil || id < 0 {
			return -1, wrapInvalid(fmt.Sprintf("broker resource name %q is not a non-negative integer", names[i]))
		}
		target = int32(id)
	}
	return target, nil
}
