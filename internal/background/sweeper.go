package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper is satisfied by the login attempt tracker
type Sweeper interface {
	Sweep() int
}

// TrackerSweeper periodically purges expired login attempt records. Reads
// already treat expired records as absent; sweeping only bounds memory.
type TrackerSweeper struct {
	tracker  Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTrackerSweeper creates a new sweeper
func NewTrackerSweeper(tracker Sweeper, logger *slog.Logger, interval time.Duration) *TrackerSweeper {
	return &TrackerSweeper{
		tracker:  tracker,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called. It
// blocks; run it in its own goroutine.
func (s *TrackerSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.stopCh:
			s.logger.Info("tracker sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("tracker sweeper context cancelled")
			return
		}
	}
}

func (s *TrackerSweeper) runSweep() {
	if removed := s.tracker.Sweep(); removed > 0 {
		s.logger.Debug("expired login attempts purged", slog.Int("removed", removed))
	}
}

// Stop signals the sweeper to stop. Safe to call more than once.
func (s *TrackerSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
