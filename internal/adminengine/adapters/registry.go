package adapters

import "github.com/nugget/kadmin/internal/adminengine"

// All returns the five built-in adapters keyed by Kind, ready to hand to
// adminengine.New.
func All() map[adminengine.Kind]adminengine.Adapter {
	return map[adminengine.Kind]adminengine.Adapter{
		adminengine.KindCreateTopics:     CreateTopics{},
		adminengine.KindDeleteTopics:     DeleteTopics{},
		adminengine.KindCreatePartitions: CreatePartitions{},
		adminengine.KindAlterConfigs:     AlterConfigs{},
		adminengine.KindDescribeConfigs:  DescribeConfigs{},
	}
}
