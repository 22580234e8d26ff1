package adapters

import (
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// AlterConfigs builds and parses AlterConfigs (v0, §6). The request is
// always a non-incremental AlterConfigs: every AlterConfigEntry is sent
// as a plain name/value pair, and neither AlterConfigEntry.Op nor
// Options.Incremental is read here, since sarama v1's
// AlterConfigsRequest has no per-entry operation field.
type AlterConfigs struct{}

func (AlterConfigs) Kind() adminengine.Kind { return adminengine.KindAlterConfigs }

func (AlterConfigs) Do(h *adminengine.Handle, conn adminengine.BrokerConn, waiter adminengine.BrokerWaiter, logger *slog.Logger) (adminengine.Result, error) {
	args := h.AlterConfigsArgs()
	opts := h.Options()

	req := &sarama.AlterConfigsRequest{
		Resources:    make([]*sarama.AlterConfigsResource, 0, len(args)),
		ValidateOnly: opts.ValidateOnly,
	}
	for _, a := range args {
		entries := make(map[string]*string, len(a.Entries))
		for _, e := range a.Entries {
			v := e.Value
			entries[e.Name] = &v
		}
		req.Resources = append(req.Resources, &sarama.AlterConfigsResource{
			Type:          resourceTypeToSarama(a.ResourceType),
			Name:          a.Name,
			ConfigEntries: entries,
		})
	}

	resp, err := conn.AlterConfigs(req)
	if err != nil {
		return adminengine.Result{}, err
	}

	if len(resp.Resources) > len(args) {
		return adminengine.Result{}, adminengine.ErrBadMessage
	}

	type key struct {
		t adminengine.ResourceType
		n string
	}
	idx := make(map[key][]int, len(args))
	for i, a := range args {
		k := key{a.ResourceType, a.Name}
		idx[k] = append(idx[k], i)
	}

	results := make([]adminengine.ConfigResourceResult, len(args))
	filled := make([]bool, len(args))
	for _, rr := range resp.Resources {
		if sarama.KError(rr.ErrorCode) == sarama.ErrNotController && waiter != nil {
			waiter.InvalidateController()
			warnf(logger, "adminengine: alter configs addressed a stale controller, invalidating",
				"resource", rr.Name, "resource_type", rr.Type)
		}
		rt, known := resourceTypeFromSarama(rr.Type)
		if !known {
			warnf(logger, "adminengine: skipping unknown resource type in alter configs response",
				"resource", rr.Name, "resource_type", rr.Type)
			continue // §9 open question: unknown resource types are skipped, not fatal
		}
		k := key{rt, rr.Name}
		positions, ok := idx[k]
		if !ok {
			return adminengine.Result{}, adminengine.ErrBadMessage
		}
		for _, pos := range positions {
			if filled[pos] {
				return adminengine.Result{}, adminengine.ErrBadMessage
			}
			filled[pos] = true
			results[pos] = adminengine.ConfigResourceResult{
				ResourceType: rt,
				Name:         rr.Name,
				ErrCode:      rr.ErrorCode,
				ErrMsg:       rr.ErrorMsg,
			}
		}
	}

	final := make([]adminengine.ConfigResourceResult, 0, len(results))
	for i, ok := range filled {
		if ok {
			final = append(final, results[i])
		}
	}

	return adminengine.Result{
		Configs:    final,
		ThrottleMs: int32(resp.ThrottleTime.Milliseconds()),
	}, nil
}
