package adapters

import (
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// CreatePartitions builds and parses CreatePartitions (v0, §6).
type CreatePartitions struct{}

func (CreatePartitions) Kind() adminengine.Kind { return adminengine.KindCreatePartitions }

func (CreatePartitions) Do(h *adminengine.Handle, conn adminengine.BrokerConn, _ adminengine.BrokerWaiter, _ *slog.Logger) (adminengine.Result, error) {
	args := h.CreatePartitionsArgs()
	opts := h.Options()

	tp := make(map[string]*sarama.TopicPartition, len(args))
	for _, a := range args {
		tp[a.Topic] = &sarama.TopicPartition{
			Count:      a.TotalCount,
			Assignment: a.ReplicaAssignment,
		}
	}

	req := &sarama.CreatePartitionsRequest{
		Version:        0,
		TopicPartitions: tp,
		Timeout:        operationTimeoutMs(opts),
		ValidateOnly:   opts.ValidateOnly,
	}

	resp, err := conn.CreatePartitions(req)
	if err != nil {
		return adminengine.Result{}, err
	}

	if len(resp.TopicPartitionErrors) > len(args) {
		return adminengine.Result{}, adminengine.ErrBadMessage
	}

	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Topic
	}
	idx := indexTopics(names)

	results := make([]adminengine.TopicResult, len(args))
	filled := make([]bool, len(args))
	for name, te := range resp.TopicPartitionErrors {
		positions, ok := idx[name]
		if !ok {
			return adminengine.Result{}, adminengine.ErrBadMessage
		}
		for _, pos := range positions {
			if filled[pos] {
				return adminengine.Result{}, adminengine.ErrBadMessage
			}
			filled[pos] = true
			results[pos] = adminengine.TopicResult{
				Topic:   name,
				ErrCode: rewriteInProgress(opts, int16(te.Err)),
				ErrMsg:  errString(te.ErrMsg),
			}
		}
	}

	return adminengine.Result{
		Topics:     results,
		ThrottleMs: int32(resp.ThrottleTime.Milliseconds()),
	}, nil
}
