// Package adapters pairs sarama's wire-protocol request/response types
// with the five per-API request builders and response parsers
// adminengine.Adapter needs (§4.4). Grounded on
// other_examples' Stars1233 admin.go for which concrete sarama types
// carry which admin RPC, and on Chris-Alexander-Pop-go-hyperforge's
// kafka adapter for the general shape of wrapping a sarama call behind
// a small adapter type.
package adapters

import (
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
)

// warnf emits a Warn-level log if logger is non-nil. Test callers that
// have no logger of their own pass nil rather than standing one up.
func warnf(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, args...)
}

// maxSynonyms is §4.4 rule 6's protocol-error bound.
const maxSynonyms = 100_000

// operationTimeoutMs returns adminengine.Options.OperationTimeout
// unchanged, as the time.Duration that sarama's request Timeout fields
// take (sarama encodes it in milliseconds on the wire); a zero or
// negative value still gets sent to the broker as-is (it has its own
// "don't wait" meaning there), only the *response* gets rewritten
// per rule 3, not the request.
func operationTimeoutMs(opts adminengine.Options) time.Duration {
	return opts.OperationTimeout
}

// rewriteInProgress implements §4.4 rule 3: a topic-mutation element
// error of "request timed out" is silently folded into no-error whenever
// the caller's operation_timeout was <= 0, since that is the broker's way
// of saying "accepted, still working" when asked not to wait.
func rewriteInProgress(opts adminengine.Options, code int16) int16 {
	if opts.OperationTimeout <= 0 && sarama.KError(code) == sarama.ErrRequestTimedOut {
		return 0
	}
	return code
}

// indexTopics maps each name in args to every position it occupies, so
// a name submitted twice gets its single entry from sarama's map-shaped
// response (which cannot carry a duplicate key) copied to each of its
// positions.
func indexTopics(args []string) map[string][]int {
	idx := make(map[string][]int, len(args))
	for i, name := range args {
		idx[name] = append(idx[name], i)
	}
	return idx
}

func errString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func configSourceFromSarama(entrySource sarama.ConfigSource) adminengine.ConfigSource {
	switch entrySource {
	case sarama.SourceTopic, sarama.SourceDynamicTopic:
		return adminengine.ConfigSourceDynamicTopic
	case sarama.SourceDynamicBroker:
		return adminengine.ConfigSourceDynamicBroker
	case sarama.SourceDynamicDefaultBroker:
		return adminengine.ConfigSourceDynamicDefaultBroker
	case sarama.SourceStaticBroker:
		return adminengine.ConfigSourceStaticBroker
	case sarama.SourceDefault:
		return adminengine.ConfigSourceDefault
	default:
		return adminengine.ConfigSourceUnknown
	}
}

func resourceTypeFromSarama(t sarama.ConfigResourceType) (adminengine.ResourceType, bool) {
	switch t {
	case sarama.TopicResource:
		return adminengine.ResourceTopic, true
	case sarama.BrokerResource:
		return adminengine.ResourceBroker, true
	case sarama.BrokerLoggerResource:
		return adminengine.ResourceBrokerLogger, true
	default:
		return adminengine.ResourceUnknown, false
	}
}

func resourceTypeToSarama(t adminengine.ResourceType) sarama.ConfigResourceType {
	switch t {
	case adminengine.ResourceTopic:
		return sarama.TopicResource
	case adminengine.ResourceBroker:
		return sarama.BrokerResource
	case adminengine.ResourceBrokerLogger:
		return sarama.BrokerLoggerResource
	default:
		return sarama.UnknownResource
	}
}
