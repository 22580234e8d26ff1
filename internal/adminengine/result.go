package adminengine

// ConfigSource tags where a config entry's value came from. The zero
// value, ConfigSourceUnknown, is what a parser reports when the
// response's source tag maps to none of the other values and the entry
// is not a default (a default entry always gets ConfigSourceDefault,
// §4.4 rule 4).
type ConfigSource int

const (
	ConfigSourceUnknown ConfigSource = iota
	ConfigSourceDynamicTopic
	ConfigSourceDynamicBroker
	ConfigSourceDynamicDefaultBroker
	ConfigSourceStaticBroker
	ConfigSourceDefault
)

// ResourceType tags the kind of resource a config-resource result names.
type ResourceType int

const (
	ResourceUnknown ResourceType = iota
	ResourceTopic
	ResourceBroker
	ResourceBrokerLogger
)

// TopicResult is the per-element result for CreateTopics, DeleteTopics,
// and CreatePartitions (§3).
type TopicResult struct {
	Topic    string
	ErrCode  int16
	ErrMsg   string
}

// ConfigSynonym is one fallback entry in a config entry's synonym chain
// (DescribeConfigs v1+ only).
type ConfigSynonym struct {
	Name   string
	Value  string
	Source ConfigSource
}

// ConfigEntry is one configuration key/value pair returned by
// DescribeConfigs.
type ConfigEntry struct {
	Name      string
	Value     string
	Source    ConfigSource
	ReadOnly  bool
	Default   bool // kept in lockstep with Source == ConfigSourceDefault, §4.4 rule 4
	Sensitive bool
	IsSynonym bool
	Synonyms  []ConfigSynonym
}

// ConfigResourceResult is the per-element result for AlterConfigs and
// DescribeConfigs (§3).
type ConfigResourceResult struct {
	ResourceType ResourceType
	Name         string
	ErrCode      int16
	ErrMsg       string
	Configs      []ConfigEntry // DescribeConfigs only
}

// Result is what the engine posts to a ReplyQueue when a request
// reaches its terminal state. Exactly one Result is posted per
// submission (§8 invariant 1).
type Result struct {
	Kind   Kind
	Opaque any

	// Err is non-nil for a request-level failure (timeout, destroy,
	// transport error, builder rejection, parse failure). When Err is
	// set, Topics and Configs are both empty — §7's "request-level
	// fatal" class reports no per-element results.
	Err error

	// Topics holds per-element results for CreateTopics, DeleteTopics,
	// and CreatePartitions, at the same positions as the corresponding
	// entries in the submitted Args.
	Topics []TopicResult

	// Configs holds per-element results for AlterConfigs and
	// DescribeConfigs, at the same positions as the corresponding
	// entries in the submitted Args (subject to the unknown-resource-type
	// skip documented as an open public-contract ambiguity in DESIGN.md).
	Configs []ConfigResourceResult

	// ThrottleMs is the broker-advised backoff hint read from the
	// response, when the negotiated protocol version carries one.
	ThrottleMs int32
}
