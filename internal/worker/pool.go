// Package worker runs background jobs on a fixed set of goroutines and
// exposes each job's status so callers can poll or wait for completion.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPoolClosed = errors.New("worker pool is shut down")
	ErrQueueFull  = errors.New("worker pool queue is full")
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Func is the body of a job. The context is cancelled when the pool is
// forced to stop.
type Func func(ctx context.Context) error

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Job is a handle to submitted work.
type Job struct {
	ID        string
	Submitted time.Time

	fn     Func
	mu     sync.Mutex
	status Status
	err    error
	done   chan struct{}
}

func newJob(id string, fn Func) *Job {
	return &Job{ID: id, Submitted: time.Now(), fn: fn, status: StatusPending, done: make(chan struct{})}
}

// Status returns the current state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the job error once it has finished.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx ends, returning the job error.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) setRunning() {
	j.mu.Lock()
	j.status = StatusRunning
	j.mu.Unlock()
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	j.err = err
	if err != nil {
		j.status = StatusFailed
	} else {
		j.status = StatusSucceeded
	}
	j.mu.Unlock()
	close(j.done)
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers   int
	Queued    int
	Running   int64
	Succeeded int64
	Failed    int64
}

// Pool manages a pool of worker goroutines for concurrent job processing.
type Pool struct {
	workers       int
	queue         chan *Job
	submitTimeout time.Duration
	logger        Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool

	running   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Options configures a Pool.
type Options struct {
	Workers       int
	QueueSize     int
	SubmitTimeout time.Duration
}

// NewPool creates a pool. Workers defaults to the CPU count, QueueSize to
// 4x workers and SubmitTimeout to 5s.
func NewPool(opts Options, logger Logger) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 4
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:       opts.Workers,
		queue:         make(chan *Job, opts.QueueSize),
		submitTimeout: opts.SubmitTimeout,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	p.logger.Info("starting worker pool", "workers", p.workers, "queue_size", cap(p.queue))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.queue {
		p.run(id, job)
	}
}

func (p *Pool) run(workerID int, job *Job) {
	job.setRunning()
	p.running.Add(1)
	start := time.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		err = job.fn(p.ctx)
	}()

	p.running.Add(-1)
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("job failed", "job_id", job.ID, "worker", workerID, "duration", time.Since(start), "error", err)
	} else {
		p.succeeded.Add(1)
		p.logger.Debug("job completed", "job_id", job.ID, "worker", workerID, "duration", time.Since(start))
	}
	job.finish(err)
}

// Submit enqueues fn. It waits up to the submit timeout for queue space.
func (p *Pool) Submit(id string, fn Func) (*Job, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	job := newJob(id, fn)
	timer := time.NewTimer(p.submitTimeout)
	defer timer.Stop()

	select {
	case p.queue <- job:
		return job, nil
	case <-timer.C:
		p.logger.Warn("failed to submit job: queue full", "job_id", id)
		return nil, ErrQueueFull
	}
}

// Shutdown stops accepting jobs and lets queued jobs finish. If ctx ends
// first, running jobs see their context cancelled and ctx.Err is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	close(p.queue)
	p.mu.Unlock()

	if !started {
		// Nobody will drain the queue; fail the leftovers.
		for job := range p.queue {
			job.finish(ErrPoolClosed)
		}
		p.cancel()
		return nil
	}

	p.logger.Info("shutting down worker pool")
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool shut down")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Queued:    len(p.queue),
		Running:   p.running.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
	}
}
