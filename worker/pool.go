package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/structcheck/typematch/engine"
)

// Pool manages a pool of worker goroutines checking values in parallel.
// All workers share one read-only engine.Config.
type Pool struct {
	workers int
	jobs    chan Job
	results chan *JobResult
	cfg     *engine.Config
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  atomic.Bool

	// mu is held shared by senders and exclusively while closing jobs, so
	// no send can race the close.
	mu sync.RWMutex

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	elapsed   atomic.Uint64 // nanoseconds
}

// NewPool creates a new worker pool with the specified number of workers.
// If workers <= 0, it defaults to runtime.NumCPU(). A nil cfg uses
// engine.DefaultConfig().
func NewPool(cfg *engine.Config, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if cfg == nil {
		cfg = engine.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan *JobResult, workers*2),
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit queues a job, blocking while the queue is full. It returns false
// once the pool is closed.
func (p *Pool) Submit(job Job) bool {
	return p.submit(job, true)
}

// SubmitAsync queues a job without blocking. It returns false if the queue
// is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	return p.submit(job, false)
}

func (p *Pool) submit(job Job, block bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}

	if block {
		select {
		case <-p.ctx.Done():
			return false
		case p.jobs <- job:
		}
	} else {
		select {
		case <-p.ctx.Done():
			return false
		case p.jobs <- job:
		default:
			return false
		}
	}
	p.submitted.Add(1)
	return true
}

// Results returns the channel for receiving job results.
func (p *Pool) Results() <-chan *JobResult {
	return p.results
}

// Close stops the workers, discarding queued jobs and unread results.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}

	// Cancelling first releases senders blocked on a full queue.
	p.cancel()

	// Drain results so no worker blocks on send.
	done := make(chan struct{})
	go func() {
		for range p.results {
		}
		close(done)
	}()

	p.closeJobs()
	p.wg.Wait()
	close(p.results)
	<-done
}

// CloseAndWait stops accepting jobs, finishes the queued ones and returns
// every result not yet read from Results. Submissions already in progress
// are completed first.
func (p *Pool) CloseAndWait() *BatchResult {
	if p.closed.Swap(true) {
		return &BatchResult{}
	}

	// Collect while closing so that workers, and the senders waiting on
	// them, keep making progress.
	collected := make(chan []*JobResult, 1)
	go func() {
		var rs []*JobResult
		for r := range p.results {
			rs = append(rs, r)
		}
		collected <- rs
	}()

	p.closeJobs()
	p.wg.Wait()
	close(p.results)
	results := <-collected
	p.cancel()

	return &BatchResult{
		Results:       results,
		TotalJobs:     int(p.submitted.Load()),
		CompletedJobs: int(p.completed.Load()),
		FailedJobs:    int(p.failed.Load()),
		TotalDuration: int64(p.elapsed.Load()),
	}
}

// closeJobs waits for in-flight submissions, then closes the queue.
func (p *Pool) closeJobs() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.jobs)
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.submitted.Load(),
		JobsCompleted: p.completed.Load(),
		JobsFailed:    p.failed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	AvgDuration   time.Duration
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := checkJob(p.ctx, p.cfg, job)
		p.completed.Add(1)
		if result.Failed() {
			p.failed.Add(1)
		}
		p.elapsed.Add(uint64(result.Duration))

		select {
		case <-p.ctx.Done():
			return
		case p.results <- result:
		}
	}
}

// checkJob runs one job against cfg.
func checkJob(ctx context.Context, cfg *engine.Config, job Job) *JobResult {
	start := time.Now()
	result := &JobResult{ID: job.ID}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	r := engine.Inspect(ctx, cfg, job.Value, job.Type)
	r.JobID = job.ID
	r.Source = job.Source
	result.Result = r
	result.Duration = time.Since(start).Nanoseconds()
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.completed.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.elapsed.Load() / completed)
}
