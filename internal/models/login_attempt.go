package models

import "time"

// AttemptRecord is the in-memory failure history for one identity
type AttemptRecord struct {
	Identity       string
	FailureCount   int
	FirstFailureAt time.Time
	LastFailureAt  time.Time
}

// LockoutDecision is derived from an AttemptRecord and the persisted lock flag.
// It is never stored.
type LockoutDecision struct {
	Locked            bool
	RemainingAttempts int
	// EvictTracker is set when the account is flagged locked: the counter must
	// be cleared once the store-level flag is cleared.
	EvictTracker bool
}
