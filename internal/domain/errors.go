package domain

import "errors"

// Failures in this system are scoped, never fatal: a missing field rejects
// one command, an unreachable store degrades one valuation, an unresolvable
// symbol drops one position, a dead socket skips one send.

var (
	// ErrStoreUnavailable wraps a failed position/fund store query. Valuation
	// degrades to an empty payload instead of failing.
	ErrStoreUnavailable = errors.New("position store unavailable")

	// ErrSocketNotReady is returned when a target socket is absent or not
	// writable. Sends are skipped, never buffered or retried.
	ErrSocketNotReady = errors.New("socket not ready")
)
