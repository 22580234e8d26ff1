package adapters

import (
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// DescribeConfigs builds and parses DescribeConfigs (v0-v1, §6). Carries
// the only two pieces of version-sensitive logic the engine itself
// encodes (§4.4 rule 4, rule 6): the is_default/source duality and the
// per-synonym-list size bound.
type DescribeConfigs struct{}

func (DescribeConfigs) Kind() adminengine.Kind { return adminengine.KindDescribeConfigs }

func (DescribeConfigs) Do(h *adminengine.Handle, conn adminengine.BrokerConn, waiter adminengine.BrokerWaiter, logger *slog.Logger) (adminengine.Result, error) {
	args := h.DescribeConfigsArgs()

	req := &sarama.DescribeConfigsRequest{
		Version:         1,
		IncludeSynonyms: true,
	}
	for _, a := range args {
		req.Resources = append(req.Resources, &sarama.ConfigResource{
			Type:        resourceTypeToSarama(a.ResourceType),
			Name:        a.Name,
			ConfigNames: append([]string(nil), a.ConfigNames...),
		})
	}

	resp, err := conn.DescribeConfigs(req)
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
			warnf(logger, "adminengine: describe configs addressed a stale controller, invalidating",
				"resource", rr.Name, "resource_type", rr.Type)
		}
		rt, known := resourceTypeFromSarama(sarama.ConfigResourceType(rr.Type))
		if !known {
			warnf(logger, "adminengine: skipping unknown resource type in describe configs response",
				"resource", rr.Name, "resource_type", rr.Type)
			continue // §9 open question: unknown resource types are skipped, not fatal
		}
		k := key{rt, rr.Name}
		positions, ok := idx[k]
		if !ok {
			return adminengine.Result{}, adminengine.ErrBadMessage
		}

		entries := make([]adminengine.ConfigEntry, 0, len(rr.Configs))
		for _, ce := range rr.Configs {
			if len(ce.Synonyms) > maxSynonyms {
				return adminengine.Result{}, adminengine.ErrBadMessage
			}

			source := configSourceFromSarama(ce.Source)
			isDefault := ce.Default || source == adminengine.ConfigSourceDefault
			if isDefault {
				source = adminengine.ConfigSourceDefault // rule 4: normalize both directions
			}

			synonyms := make([]adminengine.ConfigSynonym, 0, len(ce.Synonyms))
			for _, s := range ce.Synonyms {
				synonyms = append(synonyms, adminengine.ConfigSynonym{
					Name:   s.ConfigName,
					Value:  s.ConfigValue,
					Source: configSourceFromSarama(s.Source),
				})
			}

			entries = append(entries, adminengine.ConfigEntry{
				Name:      ce.Name,
				Value:     ce.Value,
				Source:    source,
				ReadOnly:  ce.ReadOnly,
				Default:   isDefault,
				Sensitive: ce.Sensitive,
				// A ConfigEntry returned here is always the top-level
				// entry for the resource, never someone else's synonym
				// (ConfigSynonym carries that role separately), so
				// is_synonym is always false regardless of whether this
				// entry has synonyms attached (rdkafka_admin.c only ever
				// sets is_synonym on a nested synonym sub-entry).
				IsSynonym: false,
				Synonyms:  synonyms,
			})
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
				Configs:      entries,
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
