package adapters

import (
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// DeleteTopics builds and parses DeleteTopics (v0-v1, §6).
type DeleteTopics struct{}

func (DeleteTopics) Kind() adminengine.Kind { return adminengine.KindDeleteTopics }

func (DeleteTopics) Do(h *adminengine.Handle, conn adminengine.BrokerConn, _ adminengine.BrokerWaiter, _ *slog.Logger) (adminengine.Result, error) {
	args := h.DeleteTopicsArgs()
	opts := h.Options()

	req := &sarama.DeleteTopicsRequest{
		Version: 1,
		Topics:  append([]string(nil), args...),
		Timeout: operationTimeoutMs(opts),
	}

	resp, err := conn.DeleteTopics(req)
	if err != nil {
		return adminengine.Result{}, err
	}

	if len(resp.TopicErrorCodes) > len(args) {
		return adminengine.Result{}, adminengine.ErrBadMessage
	}

	idx := indexTopics(args)
	results := make([]adminengine.TopicResult, len(args))
	filled := make([]bool, len(args))
	for name, code := range resp.TopicErrorCodes {
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
				ErrCode: rewriteInProgress(opts, int16(code)),
			}
		}
	}

	return adminengine.Result{
		Topics:     results,
		ThrottleMs: int32(resp.ThrottleTime.Milliseconds()),
	}, nil
}
