package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Job is a unit of work submitted to the WorkerPool.
// It returns an error to indicate failure; the pool reports it through OnError.
type Job func(ctx context.Context) error

// WorkerPool runs jobs using a fixed number of goroutines.
// The Ingester uses it to bound concurrent augmentation work, which is
// dominated by translator round trips.
type WorkerPool struct {
	// OnError, if set, is called with every error a job returns. A job
	// that panics is reported as an error.
	OnError func(error)
	Logger  zerolog.Logger

	jobs    chan Job
	quit    chan struct{}
	wg      sync.WaitGroup
	senders sync.WaitGroup
	workers int
	closeMu sync.RWMutex
	closed  bool
}

// NewWorkerPool creates a new worker pool with the specified number of workers
// and job queue capacity.
func NewWorkerPool(workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &WorkerPool{
		Logger:  zerolog.Nop(),
		jobs:    make(chan Job, queue),
		quit:    make(chan struct{}),
		workers: workers,
	}
}

// Start begins the worker goroutines and listens for jobs until ctx is done or Close is called.
// Jobs still queued when ctx is done are dropped.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					p.run(ctx, job)
				}
			}
		}()
	}
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return job(ctx)
	}()
	if err == nil {
		return
	}
	p.Logger.Debug().Err(err).Msg("job failed")
	if p.OnError != nil {
		p.OnError(err)
	}
}

// Submit enqueues a job for processing. Returns an error if the pool is closed.
func (p *WorkerPool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx enqueues a job, blocking while the queue is full. It returns
// ctx.Err() if ctx ends first and ErrPoolClosed if the pool is closed while
// waiting.
func (p *WorkerPool) SubmitCtx(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.closeMu.RLock()
	if p.closed {
		p.closeMu.RUnlock()
		return ErrPoolClosed
	}
	p.senders.Add(1)
	p.closeMu.RUnlock()
	defer p.senders.Done()

	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new jobs and waits for workers to finish the queued ones.
func (p *WorkerPool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)
	p.closeMu.Unlock()

	// blocked submitters leave through quit before jobs is closed
	p.senders.Wait()
	close(p.jobs)
	p.wg.Wait()
}

// ErrPoolClosed is returned if a Submit is attempted after Close.
var ErrPoolClosed = &PoolError{"worker pool closed"}

// PoolError provides a simple typed error for pool operations.
type PoolError struct{ msg string }

func (e *PoolError) Error() string { return e.msg }
