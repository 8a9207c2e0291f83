// Package worker runs fire-and-forget background tasks on a fixed set of
// goroutines fed by a bounded queue.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultWorkers is the number of goroutines draining the queue.
	DefaultWorkers = 4

	// DefaultQueueSize is the number of tasks that may wait for a worker.
	DefaultQueueSize = 64
)

// Task is a unit of background work. Its error is logged, never returned to
// the submitter.
type Task func(ctx context.Context) error

type job struct {
	name      string
	task      Task
	submitted time.Time
}

// Pool executes submitted tasks in the background.
type Pool struct {
	queue chan job
	log   *slog.Logger

	// pending tracks submitted tasks that have not finished yet.
	pending sync.WaitGroup

	// workers tracks the worker goroutines themselves.
	workers sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewPool starts a pool with the given number of workers and queue size.
// Non-positive values fall back to the defaults.
func NewPool(workers, queueSize int, log *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}

	p := &Pool{
		queue: make(chan job, queueSize),
		log:   log.With("component", "worker"),
	}

	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.run()
	}

	return p
}

// Submit enqueues task without blocking. Tasks run with a context detached
// from ctx's cancellation so a caller going away never stops them. When the
// queue is full or the pool is stopped the task is dropped, logged and false
// is returned.
func (p *Pool) Submit(ctx context.Context, name string, task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		p.log.Warn("Dropping task, pool stopped", "task", name)
		return false
	}

	p.pending.Add(1)
	j := job{name: name, task: detached(ctx, task), submitted: time.Now()}

	select {
	case p.queue <- j:
		return true
	default:
		p.pending.Done()
		p.log.Warn("Dropping task, queue full",
			"task", name, "queue_size", cap(p.queue),
		)
		return false
	}
}

// Wait blocks until every task submitted so far has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop refuses new tasks, drains the queue and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.workers.Wait()
}

func (p *Pool) run() {
	defer p.workers.Done()

	for j := range p.queue {
		p.execute(j)
	}
}

func (p *Pool) execute(j job) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Background task panicked",
				"task", j.name, "panic", r,
			)
		}
	}()

	if err := j.task(context.Background()); err != nil {
		p.log.Warn("Background task failed",
			"task", j.name, "error", err,
			"elapsed", time.Since(j.submitted),
		)
	}
}

// detached binds task to the values of ctx without its deadline or
// cancellation.
func detached(ctx context.Context, task Task) Task {
	if ctx == nil {
		return task
	}
	base := context.WithoutCancel(ctx)
	return func(context.Context) error {
		return task(base)
	}
}
