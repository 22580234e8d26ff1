package adapters

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// stubConn answers each RPC with a pre-built response, letting a test
// drive the parser side of an adapter without a real broker.
type stubConn struct {
	createTopicsResp     *sarama.CreateTopicsResponse
	deleteTopicsResp     *sarama.DeleteTopicsResponse
	createPartitionsResp *sarama.CreatePartitionsResponse
	alterConfigsResp     *sarama.AlterConfigsResponse
	describeConfigsResp  *sarama.DescribeConfigsResponse
	err                  error
}

func (c *stubConn) ID() int32 { return 1 }
func (c *stubConn) CreateTopics(*sarama.CreateTopicsRequest) (*sarama.CreateTopicsResponse, error) {
	return c.createTopicsResp, c.err
}
func (c *stubConn) DeleteTopics(*sarama.DeleteTopicsRequest) (*sarama.DeleteTopicsResponse, error) {
	return c.deleteTopicsResp, c.err
}
func (c *stubConn) CreatePartitions(*sarama.CreatePartitionsRequest) (*sarama.CreatePartitionsResponse, error) {
	return c.createPartitionsResp, c.err
}
func (c *stubConn) AlterConfigs(*sarama.AlterConfigsRequest) (*sarama.AlterConfigsResponse, error) {
	return c.alterConfigsResp, c.err
}
func (c *stubConn) DescribeConfigs(*sarama.DescribeConfigsRequest) (*sarama.DescribeConfigsResponse, error) {
	return c.describeConfigsResp, c.err
}

// fakeWaiter is a minimal adminengine.BrokerWaiter that only tracks how
// many times InvalidateController was called; Alter/DescribeConfigs
// tests never reach the WaitBroker/WaitController lookups.
type fakeWaiter struct {
	invalidated int
}

func (w *fakeWaiter) GetBrokerAsync(int32, *adminengine.Notifier) (adminengine.BrokerConn, bool) {
	return nil, false
}
func (w *fakeWaiter) GetControllerAsync(*adminengine.Notifier) (adminengine.BrokerConn, bool) {
	return nil, false
}
func (w *fakeWaiter) InvalidateController() { w.invalidated++ }

func TestDeleteTopics_OrderedResultsMatchArgsPositions(t *testing.T) {
	// §8 scenario 2: submit ["beta","alpha","gamma"], broker replies in a
	// different order; result order must follow the request's order.
	conn := &stubConn{
		deleteTopicsResp: &sarama.DeleteTopicsResponse{
			TopicErrorCodes: map[string]sarama.KError{
				"gamma": sarama.ErrNoError,
				"alpha": sarama.ErrNoError,
				"beta":  sarama.ErrNoError,
			},
		},
	}

	h := adminengine.NewTestHandleDeleteTopics([]string{"beta", "alpha", "gamma"}, adminengine.DefaultOptions(5*time.Second))

	ad := DeleteTopics{}
	res, err := ad.Do(h, conn, nil, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := []string{"beta", "alpha", "gamma"}
	if len(res.Topics) != len(want) {
		t.Fatalf("got %d topics, want %d", len(res.Topics), len(want))
	}
	for i, name := range want {
		if res.Topics[i].Topic != name {
			t.Errorf("position %d: got %q, want %q", i, res.Topics[i].Topic, name)
		}
	}
}

func TestDeleteTopics_ExtraElementIsBadMessage(t *testing.T) {
	conn := &stubConn{
		deleteTopicsResp: &sarama.DeleteTopicsResponse{
			TopicErrorCodes: map[string]sarama.KError{
				"t1": sarama.ErrNoError,
				"t2": sarama.ErrNoError,
			},
		},
	}
	h := adminengine.NewTestHandleDeleteTopics([]string{"t1"}, adminengine.DefaultOptions(5*time.Second))

	ad := DeleteTopics{}
	_, err := ad.Do(h, conn, nil, nil)
	if !errors.Is(err, adminengine.ErrBadMessage) {
		t.Fatalf("err = %v, want ErrBadMessage", err)
	}
}

func TestCreateTopics_OperationTimeoutRewritesInProgress(t *testing.T) {
	// §4.4 rule 3 / §8 boundary: operation_timeout <= 0 rewrites
	// REQUEST_TIMED_OUT element errors to no-error.
	conn := &stubConn{
		createTopicsResp: &sarama.CreateTopicsResponse{
			TopicErrors: map[string]*sarama.TopicError{
				"t1": {Err: sarama.ErrRequestTimedOut},
			},
		},
	}
	opts := adminengine.DefaultOptions(5 * time.Second) // OperationTimeout defaults to 0
	h := adminengine.NewTestHandleCreateTopics([]adminengine.TopicSpec{{Name: "t1", NumPartitions: 1, ReplicationFactor: 1}}, opts)

	ad := CreateTopics{}
	res, err := ad.Do(h, conn, nil, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Topics[0].ErrCode != 0 {
		t.Fatalf("ErrCode = %d, want 0 (rewritten)", res.Topics[0].ErrCode)
	}
}

func TestCreateTopics_OperationTimeoutSetKeepsError(t *testing.T) {
	conn := &stubConn{
		createTopicsResp: &sarama.CreateTopicsResponse{
			TopicErrors: map[string]*sarama.TopicError{
				"t1": {Err: sarama.ErrRequestTimedOut},
			},
		},
	}
	opts := adminengine.DefaultOptions(5 * time.Second)
	opts.OperationTimeout = time.Second
	h := adminengine.NewTestHandleCreateTopics([]adminengine.TopicSpec{{Name: "t1", NumPartitions: 1, ReplicationFactor: 1}}, opts)

	ad := CreateTopics{}
	res, err := ad.Do(h, conn, nil, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Topics[0].ErrCode != int16(sarama.ErrRequestTimedOut) {
		t.Fatalf("ErrCode = %d, want %d (not rewritten)", res.Topics[0].ErrCode, sarama.ErrRequestTimedOut)
	}
}

func TestDescribeConfigs_V0V1SourceDualityNormalizes(t *testing.T) {
	// §8 scenario 5: v0's is_default and v1's source must agree.
	v0Entry := &sarama.ConfigEntry{Name: "retention.ms", Value: "604800000", Default: true}
	v1Entry := &sarama.ConfigEntry{Name: "retention.ms", Value: "604800000", Source: sarama.SourceDefault}

	for name, entry := range map[string]*sarama.ConfigEntry{"v0": v0Entry, "v1": v1Entry} {
		t.Run(name, func(t *testing.T) {
			conn := &stubConn{
				describeConfigsResp: &sarama.DescribeConfigsResponse{
					Resources: []*sarama.ResourceResponse{
						{Type: uint8(sarama.TopicResource), Name: "t1", Configs: []*sarama.ConfigEntry{entry}},
					},
				},
			}
			h := adminengine.NewTestHandleDescribeConfigs(
				[]adminengine.DescribeResourceSpec{{ResourceType: adminengine.ResourceTopic, Name: "t1"}},
				adminengine.DefaultOptions(5*time.Second),
			)

			ad := DescribeConfigs{}
			res, err := ad.Do(h, conn, nil, nil)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			entryOut := res.Configs[0].Configs[0]
			if !entryOut.Default {
				t.Error("Default = false, want true")
			}
			if entryOut.Source != adminengine.ConfigSourceDefault {
				t.Errorf("Source = %v, want ConfigSourceDefault", entryOut.Source)
			}
		})
	}
}

func TestDescribeConfigs_EntryWithSynonymsReportsIsSynonymFalse(t *testing.T) {
	// A ConfigEntry returned by DescribeConfigs is always the top-level
	// entry for its resource, never someone else's synonym, so
	// IsSynonym must stay false even when Synonyms is non-empty.
	conn := &stubConn{
		describeConfigsResp: &sarama.DescribeConfigsResponse{
			Resources: []*sarama.ResourceResponse{
				{Type: uint8(sarama.TopicResource), Name: "t1", Configs: []*sarama.ConfigEntry{
					{
						Name:  "retention.ms",
						Value: "604800000",
						Synonyms: []*sarama.ConfigSynonym{
							{ConfigName: "retention.ms", ConfigValue: "604800000"},
						},
					},
				}},
			},
		},
	}
	h := adminengine.NewTestHandleDescribeConfigs(
		[]adminengine.DescribeResourceSpec{{ResourceType: adminengine.ResourceTopic, Name: "t1"}},
		adminengine.DefaultOptions(5*time.Second),
	)

	ad := DescribeConfigs{}
	res, err := ad.Do(h, conn, nil, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	entry := res.Configs[0].Configs[0]
	if len(entry.Synonyms) == 0 {
		t.Fatal("expected the entry to carry at least one synonym")
	}
	if entry.IsSynonym {
		t.Error("IsSynonym = true, want false: this entry is the top-level entry, not a synonym")
	}
}

func TestDescribeConfigs_OversizedSynonymListIsBadMessage(t *testing.T) {
	synonyms := make([]*sarama.ConfigSynonym, maxSynonyms+1)
	for i := range synonyms {
		synonyms[i] = &sarama.ConfigSynonym{ConfigName: "x", ConfigValue: "y"}
	}
	conn := &stubConn{
		describeConfigsResp: &sarama.DescribeConfigsResponse{
			Resources: []*sarama.ResourceResponse{
				{Type: uint8(sarama.TopicResource), Name: "t1", Configs: []*sarama.ConfigEntry{
					{Name: "k", Value: "v", Synonyms: synonyms},
				}},
			},
		},
	}
	h := adminengine.NewTestHandleDescribeConfigs(
		[]adminengine.DescribeResourceSpec{{ResourceType: adminengine.ResourceTopic, Name: "t1"}},
		adminengine.DefaultOptions(5*time.Second),
	)

	ad := DescribeConfigs{}
	_, err := ad.Do(h, conn, nil, nil)
	if !errors.Is(err, adminengine.ErrBadMessage) {
		t.Fatalf("err = %v, want ErrBadMessage", err)
	}
}

func TestAlterConfigs_UnknownResourceTypeIsSkippedAndWarned(t *testing.T) {
	// §8 testable property 3 / GLOSSARY "logs and skips": an unrecognized
	// resource type in the response is dropped from the result, not
	// fatal, and must log a warning.
	var logbuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logbuf, nil))

	conn := &stubConn{
		alterConfigsResp: &sarama.AlterConfigsResponse{
			Resources: []*sarama.AlterConfigsResourceResponse{
				{Type: uint8(99), Name: "mystery"},
				{Type: uint8(sarama.TopicResource), Name: "t1"},
			},
		},
	}
	// Two resources requested so the two-element response does not trip
	// the "more elements than requested" ErrBadMessage check.
	h := adminengine.NewTestHandleAlterConfigs(
		[]adminengine.AlterResourceSpec{
			{ResourceType: adminengine.ResourceTopic, Name: "t1"},
			{ResourceType: adminengine.ResourceTopic, Name: "t2"},
		},
		adminengine.DefaultOptions(5*time.Second),
	)

	ad := AlterConfigs{}
	res, err := ad.Do(h, conn, nil, logger)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(res.Configs) != 1 || res.Configs[0].Name != "t1" {
		t.Fatalf("unexpected configs: %+v", res.Configs)
	}
	if !bytes.Contains(logbuf.Bytes(), []byte("unknown resource type")) {
		t.Errorf("expected a warning about the unknown resource type, got log: %s", logbuf.String())
	}
}

func TestAlterConfigs_NotControllerInvalidatesWaiter(t *testing.T) {
	w := &fakeWaiter{}
	conn := &stubConn{
		alterConfigsResp: &sarama.AlterConfigsResponse{
			Resources: []*sarama.AlterConfigsResourceResponse{
				{Type: uint8(sarama.TopicResource), Name: "t1", ErrorCode: int16(sarama.ErrNotController)},
			},
		},
	}
	h := adminengine.NewTestHandleAlterConfigs(
		[]adminengine.AlterResourceSpec{{ResourceType: adminengine.ResourceTopic, Name: "t1"}},
		adminengine.DefaultOptions(5*time.Second),
	)

	ad := AlterConfigs{}
	if _, err := ad.Do(h, conn, w, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if w.invalidated != 1 {
		t.Fatalf("InvalidateController called %d times, want 1", w.invalidated)
	}
}
