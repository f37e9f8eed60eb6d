package webhook

import (
	"time"

	"github.com/austindbirch/bugsignal/internal/logging"
	"github.com/austindbirch/bugsignal/internal/metrics"
)

// SweeperOptions configure the retention sweep.
type SweeperOptions struct {
	Interval  time.Duration // how often the sweep runs
	Retention time.Duration // maximum age of a delivery log
}

// DefaultSweeperOptions keeps logs for 7 days, sweeping hourly.
func DefaultSweeperOptions() SweeperOptions {
	return SweeperOptions{
		Interval:  time.Hour,
		Retention: 7 * 24 * time.Hour,
	}
}

// Sweeper periodically evicts delivery logs older than the retention window.
// It is the only component that deletes logs, and it never touches a
// delivery that has not reached a terminal state.
type Sweeper struct {
	store  *Store
	clock  Clock
	opts   SweeperOptions
	logger *logging.Logger

	stop chan struct{}
	done chan struct{}
}

// NewSweeper builds a sweeper over the given store.
func NewSweeper(store *Store, clock Clock, opts SweeperOptions) *Sweeper {
	if clock == nil {
		clock = RealClock()
	}
	def := DefaultSweeperOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.Retention <= 0 {
		opts.Retention = def.Retention
	}
	return &Sweeper{
		store:  store,
		clock:  clock,
		opts:   opts,
		logger: logging.New("bugsignal-sweeper"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.stop:
				return
			case <-s.clock.After(s.opts.Interval):
				s.RunOnce()
			}
		}
	}()
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// RunOnce performs a single sweep and returns the number of logs evicted.
func (s *Sweeper) RunOnce() int {
	cutoff := s.clock.Now().Add(-s.opts.Retention)
	removed := s.store.SweepOlderThan(cutoff)
	metrics.RecordSwept(removed)
	if removed > 0 {
		s.logger.Plain().WithField("removed", removed).Info("retention sweep evicted delivery logs")
	}
	return removed
}
