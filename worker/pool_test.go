package worker

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/descriptor"
	"github.com/structcheck/typematch/engine"
)

type slowInt int

// countingConfig returns a config whose checker for slowInt counts calls
// and sleeps for delay.
func countingConfig(calls *atomic.Int32, delay time.Duration) *engine.Config {
	lookup := func(origin *descriptor.Type, _ []*descriptor.Type, _ []any) engine.Checker {
		if origin.Kind != descriptor.KindClass || origin.GoType != reflect.TypeOf(slowInt(0)) {
			return nil
		}
		return func(v any, _ *descriptor.Type, _ []*descriptor.Type, _ *engine.Matcher) error {
			calls.Add(1)
			time.Sleep(delay)
			if _, ok := v.(slowInt); !ok {
				return engine.Mismatch("is not a slowInt")
			}
			return nil
		}
	}
	return engine.NewConfig(engine.WithLookup(lookup))
}

func TestPool_NewPool(t *testing.T) {
	pool := NewPool(nil, 2)
	defer pool.Close()

	if pool == nil {
		t.Fatal("expected non-nil pool")
	}
	if pool.workers != 2 {
		t.Errorf("workers = %d; want 2", pool.workers)
	}
	if pool.cfg == nil {
		t.Error("expected default config")
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	pool := NewPool(nil, 0)
	defer pool.Close()

	if pool.workers <= 0 {
		t.Errorf("workers = %d; want > 0", pool.workers)
	}
}

func TestPool_SubmitAndReceive(t *testing.T) {
	pool := NewPool(nil, 2)
	defer pool.Close()

	job := Job{ID: "test-1", Source: "inline", Value: []any{1, "x"}, Type: descriptor.List(descriptor.Int)}
	if !pool.Submit(job) {
		t.Error("expected job to be submitted")
	}

	select {
	case result := <-pool.Results():
		if result.ID != "test-1" {
			t.Errorf("ID = %q; want %q", result.ID, "test-1")
		}
		if !result.Failed() {
			t.Fatal("expected mismatch")
		}
		if result.Result.JobID != "test-1" || result.Result.Source != "inline" {
			t.Errorf("Result = %+v; want job ID and source set", result.Result)
		}
		issues := result.Result.Errors()
		if len(issues) != 1 || issues[0].Diagnostics != "item 1 is not an instance of int" {
			t.Errorf("issues = %v", issues)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for result")
	}
}

func TestPool_SubmitToClosedPool(t *testing.T) {
	pool := NewPool(nil, 2)
	pool.Close()

	if pool.Submit(Job{ID: "after-close"}) {
		t.Error("expected submit to fail after close")
	}
	if pool.SubmitAsync(Job{ID: "after-close"}) {
		t.Error("expected async submit to fail after close")
	}
}

func TestPool_DoubleClose(t *testing.T) {
	pool := NewPool(nil, 2)

	pool.Close()
	pool.Close() // Should not panic
}

func TestPool_CloseAndWait(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool(countingConfig(&calls, 0), 2)

	d := descriptor.Of[slowInt]()
	for i := 0; i < 3; i++ {
		if !pool.Submit(NewJob(slowInt(i), d)) {
			t.Fatalf("submit %d failed", i)
		}
	}
	pool.Submit(NewJob("x", d))

	batch := pool.CloseAndWait()
	if batch.TotalJobs != 4 || batch.CompletedJobs != 4 {
		t.Errorf("TotalJobs = %d, CompletedJobs = %d; want 4, 4", batch.TotalJobs, batch.CompletedJobs)
	}
	if batch.FailedJobs != 1 {
		t.Errorf("FailedJobs = %d; want 1", batch.FailedJobs)
	}
	if len(batch.Results) != 4 {
		t.Errorf("len(Results) = %d; want 4", len(batch.Results))
	}
	if !batch.HasErrors() || batch.ErrorCount() != 1 {
		t.Errorf("HasErrors = %v, ErrorCount = %d", batch.HasErrors(), batch.ErrorCount())
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d; want 4", calls.Load())
	}

	again := pool.CloseAndWait()
	if len(again.Results) != 0 {
		t.Error("expected empty result from second CloseAndWait")
	}
}

func TestPool_SubmitRacesClose(t *testing.T) {
	d := descriptor.Of[slowInt]()

	for round := 0; round < 200; round++ {
		var calls atomic.Int32
		pool := NewPool(countingConfig(&calls, 0), 2)

		var accepted atomic.Int32
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					var ok bool
					if g%2 == 0 {
						ok = pool.Submit(NewJob(slowInt(i), d))
					} else {
						ok = pool.SubmitAsync(NewJob(slowInt(i), d))
					}
					if ok {
						accepted.Add(1)
					}
				}
			}(g)
		}

		if round%2 == 0 {
			pool.Close()
			wg.Wait()
			continue
		}

		result := pool.CloseAndWait()
		wg.Wait()
		if got, want := len(result.Results), int(accepted.Load()); got != want {
			t.Fatalf("round %d: CloseAndWait returned %d results for %d accepted jobs", round, got, want)
		}
		if pool.Submit(NewJob(slowInt(0), d)) {
			t.Fatalf("round %d: Submit after CloseAndWait succeeded", round)
		}
	}
}

func TestPool_Stats(t *testing.T) {
	pool := NewPool(nil, 2)
	defer pool.Close()

	pool.Submit(NewJob(1, descriptor.Int))

	select {
	case <-pool.Results():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for result")
	}

	stats := pool.Stats()
	if stats.Workers != 2 {
		t.Errorf("Workers = %d; want 2", stats.Workers)
	}
	if stats.JobsSubmitted != 1 || stats.JobsCompleted != 1 {
		t.Errorf("JobsSubmitted = %d, JobsCompleted = %d; want 1, 1", stats.JobsSubmitted, stats.JobsCompleted)
	}
	if stats.JobsFailed != 0 {
		t.Errorf("JobsFailed = %d; want 0", stats.JobsFailed)
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob(1, descriptor.Int)
	b := NewJob(1, descriptor.Int)

	if _, err := uuid.Parse(a.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", a.ID, err)
	}
	if a.ID == b.ID {
		t.Error("expected distinct job IDs")
	}
}

func TestBatchChecker_EmptyBatch(t *testing.T) {
	bc := NewBatchChecker(nil, 2)

	result := bc.CheckBatch(context.Background(), nil)
	if result.TotalJobs != 0 {
		t.Errorf("TotalJobs = %d; want 0", result.TotalJobs)
	}
}

func TestBatchChecker_SmallBatch(t *testing.T) {
	var calls atomic.Int32
	bc := NewBatchChecker(countingConfig(&calls, 0), 2)

	d := descriptor.Of[slowInt]()
	result := bc.CheckBatch(context.Background(), []Job{NewJob(slowInt(1), d), NewJob(slowInt(2), d)})
	if result.TotalJobs != 2 {
		t.Errorf("TotalJobs = %d; want 2", result.TotalJobs)
	}
	if result.CompletedJobs != 2 {
		t.Errorf("CompletedJobs = %d; want 2", result.CompletedJobs)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d; want 2", calls.Load())
	}
}

func TestBatchChecker_ParallelExecution(t *testing.T) {
	var calls atomic.Int32
	bc := NewBatchChecker(countingConfig(&calls, 10*time.Millisecond), 4)

	d := descriptor.Of[slowInt]()
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = NewJob(slowInt(i), d)
	}
	jobs[7].Value = "bad"

	start := time.Now()
	result := bc.CheckBatch(context.Background(), jobs)
	duration := time.Since(start)

	if result.TotalJobs != 10 {
		t.Errorf("TotalJobs = %d; want 10", result.TotalJobs)
	}
	if result.CompletedJobs != 10 {
		t.Errorf("CompletedJobs = %d; want 10", result.CompletedJobs)
	}
	if calls.Load() != 10 {
		t.Errorf("calls = %d; want 10", calls.Load())
	}

	// Results keep submission order.
	for i, r := range result.Results {
		if r.ID != jobs[i].ID {
			t.Errorf("Results[%d].ID = %q; want %q", i, r.ID, jobs[i].ID)
		}
		if got, want := r.Failed(), i == 7; got != want {
			t.Errorf("Results[%d].Failed() = %v; want %v", i, got, want)
		}
	}

	// With 4 workers and 10 jobs of 10ms each, should complete faster than sequential
	if duration > 200*time.Millisecond {
		t.Errorf("duration = %v; expected < 200ms for parallel execution", duration)
	}
}

func TestBatchChecker_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bc := NewBatchChecker(nil, 4)
	jobs := []Job{NewJob(1, descriptor.Int), NewJob(2, descriptor.Int), NewJob(3, descriptor.Int)}
	result := bc.CheckBatch(ctx, jobs)

	if result.CompletedJobs != 0 || result.FailedJobs != 3 {
		t.Errorf("CompletedJobs = %d, FailedJobs = %d; want 0, 3", result.CompletedJobs, result.FailedJobs)
	}
	for _, r := range result.Results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("Error = %v; want context.Canceled", r.Error)
		}
	}
}

func TestBatchResult_HasErrors(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		br := &BatchResult{
			Results: []*JobResult{
				{ID: "1", Result: nil, Error: nil},
			},
		}
		if br.HasErrors() {
			t.Error("expected HasErrors() = false for nil result")
		}
	})

	t.Run("with error", func(t *testing.T) {
		br := &BatchResult{
			Results: []*JobResult{
				{ID: "1", Error: context.Canceled},
			},
		}
		if !br.HasErrors() {
			t.Error("expected HasErrors() = true when error present")
		}
	})

	t.Run("warnings only", func(t *testing.T) {
		r := typematch.NewResult()
		r.AddWarning(typematch.IssueTypeUnresolved, "unresolved")
		br := &BatchResult{Results: []*JobResult{{ID: "1", Result: r}}}
		if br.HasErrors() {
			t.Error("expected HasErrors() = false for warnings")
		}
		if br.WarningCount() != 1 {
			t.Errorf("WarningCount() = %d; want 1", br.WarningCount())
		}
	})
}

func TestBatchResult_Release(t *testing.T) {
	br := CheckBatchSimple(context.Background(), []Job{NewJob(1, descriptor.Int), NewJob("x", descriptor.Int), NewJob(3, descriptor.Int)})
	if br.TotalJobs != 3 || br.ErrorCount() != 1 {
		t.Fatalf("TotalJobs = %d, ErrorCount = %d; want 3, 1", br.TotalJobs, br.ErrorCount())
	}
	br.Release()
	for _, r := range br.Results {
		if r.Result != nil {
			t.Error("expected Result to be cleared after Release")
		}
	}
}
