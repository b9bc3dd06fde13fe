// Package worker runs background jobs on a fixed set of goroutines fed by a
// bounded queue.
//
// Callers reserve a queue slot before doing work whose follow-up must not be
// dropped, and hand the job over with the Ticket once that work succeeded.
// A reserved slot always has room in the queue, so Submit never blocks and
// never fails.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrQueueFull is returned by Reserve when no slot frees up within the wait time.
var ErrQueueFull = errors.New("validation queue is full, please try again later")

// ErrPoolClosed is returned by Reserve after Shutdown began.
var ErrPoolClosed = errors.New("worker pool is shut down")

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
	DefaultMaxWait   = 5 * time.Second
)

var (
	queuedJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cfs_worker_queued_jobs",
		Help: "Jobs submitted and waiting for a worker.",
	})
	activeJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cfs_worker_active_jobs",
		Help: "Jobs currently running.",
	})
	rejectedReservations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cfs_worker_rejected_reservations_total",
		Help: "Reservations refused because the queue stayed full.",
	})
)

// Job is a unit of background work.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a bounded queue.
type Pool struct {
	workers int
	maxWait time.Duration
	logger  *slog.Logger

	slots chan struct{}
	jobs  chan Job

	mu      sync.RWMutex
	closed  bool
	started bool
	tickets sync.WaitGroup
	running sync.WaitGroup
}

// New creates a pool; call Start before submitting. Non-positive values fall
// back to the defaults.
func New(workers, queueSize int, maxWait time.Duration, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &Pool{
		workers: workers,
		maxWait: maxWait,
		logger:  logger,
		slots:   make(chan struct{}, queueSize),
		jobs:    make(chan Job, queueSize),
	}
}

// Start launches the workers. Jobs receive ctx.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.running.Add(1)
		go p.work(ctx, i)
	}
	p.logger.Info("worker pool started", "workers", p.workers, "queue_size", cap(p.jobs))
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.running.Done()

	for job := range p.jobs {
		queuedJobs.Dec()
		activeJobs.Inc()
		p.run(ctx, id, job)
		activeJobs.Dec()
		<-p.slots
	}
}

func (p *Pool) run(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "worker", id, "panic", r)
		}
	}()
	job(ctx)
}

// Reserve waits up to the configured time for a queue slot.
func (p *Pool) Reserve(ctx context.Context) (*Ticket, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	p.tickets.Add(1)
	p.mu.RUnlock()

	timer := time.NewTimer(p.maxWait)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
		return &Ticket{pool: p}, nil
	case <-timer.C:
		p.tickets.Done()
		rejectedReservations.Inc()
		return nil, ErrQueueFull
	case <-ctx.Done():
		p.tickets.Done()
		return nil, ctx.Err()
	}
}

// Shutdown refuses new reservations, waits for outstanding tickets to be
// used or released, then lets the workers drain the queue.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if err := waitCtx(ctx, &p.tickets); err != nil {
		return err
	}
	close(p.jobs)

	if err := waitCtx(ctx, &p.running); err != nil {
		return err
	}
	p.logger.Info("worker pool drained")
	return nil
}

func waitCtx(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status is a snapshot for health output.
type Status struct {
	Workers   int `json:"workers"`
	Queued    int `json:"queued"`
	Reserved  int `json:"reserved"`
	QueueSize int `json:"queue_size"`
}

func (p *Pool) Status() Status {
	return Status{
		Workers:   p.workers,
		Queued:    len(p.jobs),
		Reserved:  len(p.slots),
		QueueSize: cap(p.slots),
	}
}

// Ticket is a reserved queue slot. Exactly one of Submit or Release must be called.
type Ticket struct {
	pool *Pool
	once sync.Once
}

// Submit enqueues job into the reserved slot.
func (t *Ticket) Submit(job Job) {
	t.once.Do(func() {
		queuedJobs.Inc()
		t.pool.jobs <- job
		t.pool.tickets.Done()
	})
}

// Release gives the slot back unused. Safe to call after Submit.
func (t *Ticket) Release() {
	t.once.Do(func() {
		<-t.pool.slots
		t.pool.tickets.Done()
	})
}
