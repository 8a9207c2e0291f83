package cache

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired in-process entries are evicted.
const DefaultSweepInterval = 30 * time.Minute

// Sweeper evicts expired entries on demand.
type Sweeper interface {
	Name() string
	Sweep() int
}

// Worker periodically sweeps a set of caches.
type Worker struct {
	sweepers []Sweeper
	interval time.Duration
	log      *slog.Logger
}

// NewWorker creates a worker sweeping every interval.
func NewWorker(interval time.Duration, log *slog.Logger,
	sweepers ...Sweeper) *Worker {

	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		sweepers: sweepers,
		interval: interval,
		log:      log.With("component", "cache-sweeper"),
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Debug("Cache sweeper started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Cache sweeper stopping")
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce sweeps every cache once and returns the total number of
// evicted entries.
func (w *Worker) SweepOnce() int {
	start := time.Now()

	var total int
	for _, s := range w.sweepers {
		removed := s.Sweep()
		if removed > 0 {
			w.log.Debug("Swept expired entries",
				"cache", s.Name(), "removed", removed,
			)
		}
		total += removed
	}

	if total > 0 {
		w.log.Info("Cache sweep finished",
			"removed", total, "elapsed", time.Since(start),
		)
	}
	return total
}
