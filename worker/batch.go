package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/structcheck/typematch/engine"
)

// BatchChecker checks a fixed set of jobs in parallel and returns the
// results in submission order.
type BatchChecker struct {
	cfg     *engine.Config
	workers int
}

// NewBatchChecker creates a new batch checker. A nil cfg uses
// engine.DefaultConfig().
func NewBatchChecker(cfg *engine.Config, workers int) *BatchChecker {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if cfg == nil {
		cfg = engine.DefaultConfig()
	}
	return &BatchChecker{
		cfg:     cfg,
		workers: workers,
	}
}

// CheckBatch checks every job. Jobs not started before ctx is done get a
// JobResult carrying the context error.
func (bc *BatchChecker) CheckBatch(ctx context.Context, jobs []Job) *BatchResult {
	if len(jobs) == 0 {
		return &BatchResult{
			Results: make([]*JobResult, 0),
		}
	}

	// For small batches, don't use parallelism
	if len(jobs) <= 2 || bc.workers == 1 {
		return bc.checkSequential(ctx, jobs)
	}

	return bc.checkParallel(ctx, jobs)
}

func (bc *BatchChecker) checkSequential(ctx context.Context, jobs []Job) *BatchResult {
	results := make([]*JobResult, len(jobs))
	for i, job := range jobs {
		results[i] = checkJob(ctx, bc.cfg, job)
	}
	return summarize(results)
}

func (bc *BatchChecker) checkParallel(ctx context.Context, jobs []Job) *BatchResult {
	numWorkers := bc.workers
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	indexes := make(chan int, len(jobs))
	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	// Each worker writes only its own slots.
	results := make([]*JobResult, len(jobs))

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = checkJob(ctx, bc.cfg, jobs[idx])
			}
		}()
	}
	wg.Wait()

	return summarize(results)
}

func summarize(results []*JobResult) *BatchResult {
	br := &BatchResult{
		Results:   results,
		TotalJobs: len(results),
	}
	for _, r := range results {
		if r.Error == nil {
			br.CompletedJobs++
		}
		if r.Failed() {
			br.FailedJobs++
		}
		br.TotalDuration += r.Duration
	}
	return br
}

// CheckBatchSimple is a convenience function for batch checking with the
// default configuration.
func CheckBatchSimple(ctx context.Context, jobs []Job) *BatchResult {
	return NewBatchChecker(nil, runtime.NumCPU()).CheckBatch(ctx, jobs)
}
