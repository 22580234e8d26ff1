package adminengine

import "time"

// The constructors below exist only for adapters package tests, which
// need a Handle to hand an Adapter directly without going through a full
// Engine submission. Compiled only by `go test`.

func NewTestHandleCreateTopics(args []TopicSpec, opts Options) *Handle {
	h := newHandle(KindCreateTopics, opts, NewReplyQueue(1, nil), time.Now())
	h.createTopics = args
	return h
}

func NewTestHandleDeleteTopics(args []string, opts Options) *Handle {
	h := newHandle(KindDeleteTopics, opts, NewReplyQueue(1, nil), time.Now())
	h.deleteTopics = args
	return h
}

func NewTestHandleCreatePartitions(args []PartitionsSpec, opts Options) *Handle {
	h := newHandle(KindCreatePartitions, opts, NewReplyQueue(1, nil), time.Now())
	h.createPartitions = args
	return h
}

func NewTestHandleAlterConfigs(args []AlterResourceSpec, opts Options) *Handle {
	h := newHandle(KindAlterConfigs, opts, NewReplyQueue(1, nil), time.Now())
	h.alterConfigs = args
	return h
}

func NewTestHandleDescribeConfigs(args []DescribeResourceSpec, opts Options) *Handle {
	h := newHandle(KindDescribeConfigs, opts, NewReplyQueue(1, nil), time.Now())
	h.describeConfigs = args
	return h
}
