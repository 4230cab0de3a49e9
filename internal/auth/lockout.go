package auth

import "github.com/BradenHooton/supportportal/internal/models"

// DefaultMaxAttempts is the failure threshold used when none is configured.
const DefaultMaxAttempts = 5

// FailureCounter is the read side of the attempt tracker.
type FailureCounter interface {
	FailureCount(identity string) int
}

// LockoutPolicy turns tracker state plus the persisted lock flag into a
// decision. It has no side effects; persisting a lock is the caller's job.
type LockoutPolicy struct {
	counter     FailureCounter
	maxAttempts int
}

// NewLockoutPolicy creates a policy locking at maxAttempts failures.
// A non-positive maxAttempts selects DefaultMaxAttempts.
func NewLockoutPolicy(counter FailureCounter, maxAttempts int) *LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &LockoutPolicy{
		counter:     counter,
		maxAttempts: maxAttempts,
	}
}

// MaxAttempts returns the lock threshold.
func (p *LockoutPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Evaluate decides whether identity is locked.
//
// An account whose store flag is set stays locked: the policy never unlocks it,
// it only asks for the in-memory counter to be cleared once the flag is
// cleared. Otherwise the attempt that reaches maxAttempts is the one that locks.
func (p *LockoutPolicy) Evaluate(identity string, currentlyLocked bool) models.LockoutDecision {
	if currentlyLocked {
		return models.LockoutDecision{
			Locked:            true,
			RemainingAttempts: 0,
			EvictTracker:      true,
		}
	}

	failures := p.counter.FailureCount(identity)
	remaining := p.maxAttempts - failures
	if remaining < 0 {
		remaining = 0
	}

	return models.LockoutDecision{
		Locked:            failures >= p.maxAttempts,
		RemainingAttempts: remaining,
	}
}
