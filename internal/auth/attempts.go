package auth

import (
	"sync"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultAttemptWindow is how long a failure keeps counting.
	DefaultAttemptWindow = 15 * time.Minute

	attemptShardCount = 32
)

type attemptShard struct {
	mu      sync.Mutex
	records map[string]models.AttemptRecord
}

// AttemptTracker counts authentication failures per identity inside a sliding
// window. It is process-local: several instances behind a load balancer each
// keep their own counts.
//
// Every operation holds the shard lock for the whole read-modify-write, so
// concurrent failures for one identity are never lost and a racing Evict leaves
// either no record or a complete one.
type AttemptTracker struct {
	shards [attemptShardCount]*attemptShard
	window time.Duration
	now    func() time.Time
}

// NewAttemptTracker creates a tracker whose records expire once the last
// failure is older than window. A non-positive window selects DefaultAttemptWindow.
func NewAttemptTracker(window time.Duration) *AttemptTracker {
	if window <= 0 {
		window = DefaultAttemptWindow
	}

	t := &AttemptTracker{
		window: window,
		now:    time.Now,
	}
	for i := range t.shards {
		t.shards[i] = &attemptShard{records: make(map[string]models.AttemptRecord)}
	}
	return t
}

// setClock replaces the time source.
func (t *AttemptTracker) setClock(now func() time.Time) {
	t.now = now
}

// Window returns the tracking window.
func (t *AttemptTracker) Window() time.Duration {
	return t.window
}

func (t *AttemptTracker) shard(identity string) *attemptShard {
	return t.shards[xxhash.Sum64String(identity)%attemptShardCount]
}

func (t *AttemptTracker) expired(rec models.AttemptRecord, now time.Time) bool {
	return now.Sub(rec.LastFailureAt) > t.window
}

// RecordFailure counts one failure for identity, starting a fresh record when
// none exists or the previous one aged out.
func (t *AttemptTracker) RecordFailure(identity string) {
	s := t.shard(identity)
	now := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok || t.expired(rec, now) {
		rec = models.AttemptRecord{
			Identity:       identity,
			FirstFailureAt: now,
		}
	}
	rec.FailureCount++
	rec.LastFailureAt = now
	s.records[identity] = rec
}

// FailureCount returns the failures recorded inside the window, or 0.
func (t *AttemptTracker) FailureCount(identity string) int {
	rec, ok := t.Record(identity)
	if !ok {
		return 0
	}
	return rec.FailureCount
}

// Record returns a copy of the live record for identity. Expired records are
// dropped on the way out.
func (t *AttemptTracker) Record(identity string) (models.AttemptRecord, bool) {
	s := t.shard(identity)
	now := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		return models.AttemptRecord{}, false
	}
	if t.expired(rec, now) {
		delete(s.records, identity)
		return models.AttemptRecord{}, false
	}
	return rec, true
}

// Evict removes any record for identity. Idempotent.
func (t *AttemptTracker) Evict(identity string) {
	s := t.shard(identity)

	s.mu.Lock()
	delete(s.records, identity)
	s.mu.Unlock()
}

// Sweep purges every expired record and reports how many were removed.
func (t *AttemptTracker) Sweep() int {
	now := t.now()
	removed := 0

	for _, s := range t.shards {
		s.mu.Lock()
		for identity, rec := range s.records {
			if t.expired(rec, now) {
				delete(s.records, identity)
				removed++
			}
		}
		s.mu.Unlock()
	}

	return removed
}

// Len returns the number of physically present records, expired or not.
func (t *AttemptTracker) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		n += len(s.records)
		s.mu.Unlock()
	}
	return n
}
