package worker

import (
	"github.com/google/uuid"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/descriptor"
)

// Job is one value to check against a descriptor.
type Job struct {
	// ID is a unique identifier for this job. NewJob assigns a random UUID.
	ID string

	// Source names where the value came from, e.g. a file name.
	Source string

	// Value is the value to check.
	Value any

	// Type is the descriptor the value must match.
	Type *descriptor.Type
}

// NewJob creates a job with a fresh UUID.
func NewJob(v any, t *descriptor.Type) Job {
	return Job{ID: uuid.NewString(), Value: v, Type: t}
}

// JobResult represents the result of a check job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Result holds the mismatch and warnings. It is nil when Error is set.
	Result *typematch.Result

	// Error is set when the job could not be run at all.
	Error error

	// Duration is the time taken to check (in nanoseconds).
	Duration int64
}

// Failed reports whether the job errored or its value did not match.
func (r *JobResult) Failed() bool {
	return r.Error != nil || (r.Result != nil && r.Result.HasErrors())
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results in submission order for batches,
	// and in completion order for pools.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including failures).
	CompletedJobs int

	// FailedJobs is the number of jobs whose value did not match or that
	// could not be run.
	FailedJobs int

	// TotalDuration is the total time for all checks (in nanoseconds).
	TotalDuration int64
}

// HasErrors returns true if any job failed.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r != nil && r.Failed() {
			return true
		}
	}
	return false
}

// ErrorCount returns the total number of error issues across all results.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			count += r.Result.ErrorCount()
		}
	}
	return count
}

// WarningCount returns the total number of warnings across all results.
func (br *BatchResult) WarningCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			count += r.Result.WarningCount()
		}
	}
	return count
}

// Release returns every job's Result to the pool.
func (br *BatchResult) Release() {
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			r.Result.Release()
			r.Result = nil
		}
	}
}
