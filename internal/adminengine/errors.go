package adminengine

import "errors"

// Sentinel errors surfaced through Result.Err or returned synchronously
// from a New* constructor. Mirrors the small package-level errors.New set
// the teacher uses in internal/connwatch and internal/homeassistant rather
// than pulling in an error-wrapping library the rest of the pack doesn't
// use for this kind of thing.
var (
	// ErrTimedOut means the request's absolute deadline passed before a
	// result was available.
	ErrTimedOut = errors.New("adminengine: request timed out")

	// ErrDestroyed means the engine was shut down while the request was
	// still outstanding.
	ErrDestroyed = errors.New("adminengine: engine shut down")

	// ErrConflict is returned synchronously from a New* constructor when
	// Args contains more than one Broker-type config resource (§4.4).
	ErrConflict = errors.New("adminengine: more than one Broker resource in request")

	// ErrInvalidArg is returned synchronously for out-of-range options or
	// a non-integer/negative Broker resource name.
	ErrInvalidArg = errors.New("adminengine: invalid argument")

	// ErrBadMessage means the broker's response could not be reconciled
	// with the request that produced it (more elements than requested,
	// an unmatched key, a duplicate key, or an oversized synonym list).
	ErrBadMessage = errors.New("adminengine: malformed response")

	// ErrUnknownAPI is delivered as Result.Err when a request reaches
	// ConstructRequest for a Kind with no registered adapter. The New*
	// constructors do not check for an adapter, so it is never returned
	// synchronously.
	ErrUnknownAPI = errors.New("adminengine: no adapter registered for this API")
)
