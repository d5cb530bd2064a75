package billing

import "errors"

// Upstream failure classes. They never reach the breaker client; they only label logs and metrics.
var (
	// ErrUpstreamStatus signals a non-2xx billing response.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	// ErrMalformedUsage signals an undecodable body or a missing/non-numeric total_usage.
	ErrMalformedUsage = errors.New("malformed usage response")
)
