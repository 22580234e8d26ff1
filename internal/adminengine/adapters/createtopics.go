package adapters

import (
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// CreateTopics builds and parses CreateTopics (v0-v2, §6).
type CreateTopics struct{}

func (CreateTopics) Kind() adminengine.Kind { return adminengine.KindCreateTopics }

func (CreateTopics) Do(h *adminengine.Handle, conn adminengine.BrokerConn, _ adminengine.BrokerWaiter, _ *slog.Logger) (adminengine.Result, error) {
	args := h.CreateTopicsArgs()
	opts := h.Options()

	details := make(map[string]*sarama.TopicDetail, len(args))
	for _, t := range args {
		td := &sarama.TopicDetail{
			NumPartitions:     t.NumPartitions,
			ReplicationFactor: t.ReplicationFactor,
		}
		if len(t.ReplicaAssignment) > 0 {
			td.ReplicaAssignment = t.ReplicaAssignment
			td.NumPartitions = -1
			td.ReplicationFactor = -1
		}
		if len(t.Configs) > 0 {
			td.ConfigEntries = make(map[string]*string, len(t.Configs))
			for k, v := range t.Configs {
				v := v
				td.ConfigEntries[k] = &v
			}
		}
		details[t.Name] = td
	}

	req := &sarama.CreateTopicsRequest{
		Version:      2,
		TopicDetails: details,
		Timeout:      operationTimeoutMs(opts),
		ValidateOnly: opts.ValidateOnly,
	}

	resp, err := conn.CreateTopics(req)
	if err != nil {
		return adminengine.Result{}, err
	}

	if len(resp.TopicErrors) > len(args) {
		return adminengine.Result{}, adminengine.ErrBadMessage
	}

	names := make([]string, len(args))
	for i, t := range args {
		names[i] = t.Name
	}
	idx := indexTopics(names)

	results := make([]adminengine.TopicResult, len(args))
	filled := make([]bool, len(args))
	for name, te := range resp.TopicErrors {
		positions, ok := idx[name]
		if !ok {
			return adminengine.Result{}, adminengine.ErrBadMessage
		}
		for _, pos := range positions {
			if filled[pos] {
				return adminengine.Result{}, adminengine.ErrBadMessage
			}
			filled[pos] = true
			code := rewriteInProgress(opts, int16(te.Err))
			results[pos] = adminengine.TopicResult{
				Topic:   name,
				ErrCode: code,
				ErrMsg:  errString(te.ErrMsg),
			}
		}
	}

	return adminengine.Result{
		Topics:     results,
		ThrottleMs: int32(resp.ThrottleTime.Milliseconds()),
	}, nil
}
