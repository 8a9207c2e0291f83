// Package cache implements the two-tier analysis cache: a short-lived
// in-process map in front of a persistent store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/runnerr0/memoir/internal/worker"
)

const (
	// DefaultTTL is how long an in-process entry stays valid.
	DefaultTTL = 6 * time.Hour

	// DefaultRefreshGrowth is the relative growth in submitted pages above
	// which a cached entry is flagged for refresh.
	DefaultRefreshGrowth = 0.5
)

// ErrCacheWrite marks a failed write to the persistent tier. It is only ever
// logged.
var ErrCacheWrite = errors.New("cache write failed")

// Backing is the persistent tier behind the in-process map.
type Backing[T any] interface {
	Load(ctx context.Context, key Key) (fn.Option[Entry[T]], error)
	Store(ctx context.Context, key Key, entry Entry[T]) error
	Delete(ctx context.Context, key Key) error
}

// Submitter runs background work. *worker.Pool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, name string, task worker.Task) bool
}

// Config holds the tunables of a Tiered cache.
type Config struct {
	// Name labels the cache in logs and sweep reports.
	Name string

	// TTL is the in-process validity window.
	TTL time.Duration

	// RefreshGrowth is the growth ratio that flags an entry for refresh.
	RefreshGrowth float64

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Tiered is a concurrency-safe in-process cache backed by a persistent
// store. Writes replace whole entries and the last writer wins.
type Tiered[T any] struct {
	cfg     Config
	backing Backing[T]
	tasks   Submitter
	log     *slog.Logger

	mu         sync.RWMutex
	entries    map[Key]Entry[T]
	candidates map[Key]int

	// generations is bumped by every Put and Invalidate of a key. A queued
	// persistent write only lands while its generation is still current.
	generations map[Key]uint64
	nextGen     uint64

	// persistMu orders persistent writes against deletes.
	persistMu sync.Mutex
}

// NewTiered creates a cache. backing and tasks may be nil: without a backing
// only the in-process tier exists, without tasks persistent writes and
// refresh checks run inline.
func NewTiered[T any](cfg Config, backing Backing[T], tasks Submitter,
	log *slog.Logger) *Tiered[T] {

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RefreshGrowth <= 0 {
		cfg.RefreshGrowth = DefaultRefreshGrowth
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Name == "" {
		cfg.Name = "cache"
	}
	if log == nil {
		log = slog.Default()
	}

	return &Tiered[T]{
		cfg:        cfg,
		backing:    backing,
		tasks:      tasks,
		log:        log.With("component", "cache", "cache", cfg.Name),
		entries:     make(map[Key]Entry[T]),
		candidates:  make(map[Key]int),
		generations: make(map[Key]uint64),
	}
}

// Name returns the configured cache name.
func (t *Tiered[T]) Name() string {
	return t.cfg.Name
}

// Get looks key up in memory, then in the persistent tier. A persistent hit
// is copied back into memory. Errors from the persistent tier, including
// corrupt stored data, are returned rather than treated as a miss.
func (t *Tiered[T]) Get(ctx context.Context, key Key) (fn.Option[Entry[T]], error) {
	now := t.cfg.Now()

	t.mu.RLock()
	entry, ok := t.entries[key]
	t.mu.RUnlock()

	if ok && entry.Valid(now, t.cfg.TTL) {
		return fn.Some(entry), nil
	}

	if t.backing == nil {
		return fn.None[Entry[T]](), nil
	}

	stored, err := t.backing.Load(ctx, key)
	if err != nil {
		return fn.None[Entry[T]](), fmt.Errorf("load %s: %w", key, err)
	}

	var result fn.Option[Entry[T]]
	stored.WhenSome(func(e Entry[T]) {
		e.CachedAt = now

		t.mu.Lock()
		t.entries[key] = e
		t.mu.Unlock()

		t.log.Debug("Backfilled from persistent tier", "key", key.String())
		result = fn.Some(e)
	})
	if result.IsNone() {
		return fn.None[Entry[T]](), nil
	}

	return result, nil
}

// Put stores entry in memory immediately and hands the persistent write to
// the background. A failed persistent write is logged and otherwise ignored.
func (t *Tiered[T]) Put(ctx context.Context, key Key, entry Entry[T]) {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = t.cfg.Now()
	}

	t.mu.Lock()
	t.entries[key] = entry
	delete(t.candidates, key)
	gen := t.bump(key)
	t.mu.Unlock()

	if t.backing == nil {
		return
	}

	persist := func(ctx context.Context) error {
		t.persistMu.Lock()
		defer t.persistMu.Unlock()

		if !t.current(key, gen) {
			t.log.Debug("Skipping superseded persistent write",
				"key", key.String())
			return nil
		}
		if err := t.backing.Store(ctx, key, entry); err != nil {
			t.log.Warn("Failed to persist cache entry",
				"key", key.String(),
				"error", fmt.Errorf("%w: %w", ErrCacheWrite, err),
			)
		}
		return nil
	}

	t.run(ctx, "cache-persist:"+key.String(), persist)
}

// Invalidate drops key from both tiers. Persistent writes still queued for
// key are discarded.
func (t *Tiered[T]) Invalidate(ctx context.Context, key Key) error {
	t.mu.Lock()
	delete(t.entries, key)
	delete(t.candidates, key)
	t.bump(key)
	t.mu.Unlock()

	if t.backing == nil {
		return nil
	}

	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	if err := t.backing.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// CheckRefresh compares newCount against the page count behind the cached
// entry in the background. When it grew by more than the configured ratio
// the key is flagged as a refresh candidate. Nothing is invalidated.
func (t *Tiered[T]) CheckRefresh(ctx context.Context, key Key, newCount int) {
	check := func(context.Context) error {
		t.mu.RLock()
		entry, ok := t.entries[key]
		t.mu.RUnlock()
		if !ok {
			return nil
		}

		threshold := float64(entry.PageCount) * (1 + t.cfg.RefreshGrowth)
		if float64(newCount) <= threshold {
			return nil
		}

		t.mu.Lock()
		t.candidates[key] = newCount
		t.mu.Unlock()

		t.log.Info("Cached analysis is a refresh candidate",
			"key", key.String(),
			"cached_pages", entry.PageCount,
			"submitted_pages", newCount,
		)
		return nil
	}

	t.run(ctx, "cache-refresh-check:"+key.String(), check)
}

// IsRefreshCandidate reports whether key was flagged by CheckRefresh since
// its last Put.
func (t *Tiered[T]) IsRefreshCandidate(key Key) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.candidates[key]
	return ok
}

// Sweep removes every in-process entry whose TTL has elapsed and returns how
// many were removed.
func (t *Tiered[T]) Sweep() int {
	now := t.cfg.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	var removed int
	for key, entry := range t.entries {
		if !entry.Valid(now, t.cfg.TTL) {
			delete(t.entries, key)
			delete(t.candidates, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of in-process entries, expired or not.
func (t *Tiered[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// bump assigns key a fresh generation. t.mu must be held.
func (t *Tiered[T]) bump(key Key) uint64 {
	t.nextGen++
	t.generations[key] = t.nextGen
	return t.nextGen
}

func (t *Tiered[T]) current(key Key, gen uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.generations[key] == gen
}

func (t *Tiered[T]) run(ctx context.Context, name string, task worker.Task) {
	if t.tasks != nil {
		t.tasks.Submit(ctx, name, task)
		return
	}
	_ = task(context.WithoutCancel(ctx))
}
