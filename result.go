package typematch

import (
	"sync"
)

// Result collects the issues produced by checking one value.
// Use Release() to return it to the pool when done.
type Result struct {
	// Valid is true if the value conformed (warnings are allowed)
	Valid bool `json:"valid"`

	// Issues contains the mismatch, if any, and all warnings
	Issues []Issue `json:"issues,omitempty"`

	// JobID is set when using batch checking to correlate results
	JobID string `json:"jobId,omitempty"`

	// Source names where the value came from, e.g. a file name
	Source string `json:"source,omitempty"`

	// Descriptor is the display name of the descriptor checked against
	Descriptor string `json:"descriptor,omitempty"`

	// mu protects concurrent access to Issues
	mu sync.Mutex
}

// resultPool holds reusable Result instances.
var resultPool = sync.Pool{
	New: func() any {
		return &Result{
			Issues: make([]Issue, 0, 4),
		}
	},
}

// AcquireResult gets a Result from the pool.
// The result starts as valid with no issues.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	return r
}

// Release returns the Result to the pool.
// After calling Release, the Result should not be used.
func (r *Result) Release() {
	if r == nil {
		return
	}
	// Don't return results with oversized issue slices
	if cap(r.Issues) <= 1024 {
		resultPool.Put(r)
	}
}

// Reset clears the result for reuse.
func (r *Result) Reset() {
	r.Valid = true
	r.Issues = r.Issues[:0]
	r.JobID = ""
	r.Source = ""
	r.Descriptor = ""
}

// AddIssue adds a validation issue to the result.
// This method is thread-safe.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Issues = append(r.Issues, issue)
	if issue.IsError() {
		r.Valid = false
	}
}

// AddIssues adds multiple issues to the result.
// This method is thread-safe.
func (r *Result) AddIssues(issues []Issue) {
	if len(issues) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.Issues = append(r.Issues, issues...)
	for _, issue := range issues {
		if issue.IsError() {
			r.Valid = false
			break
		}
	}
}

// AddError is a convenience method to add an error issue. Path segments
// are innermost first.
func (r *Result) AddError(code IssueType, diagnostics string, path ...string) {
	r.AddIssue(Error(code).Diagnostics(diagnostics).At(path...).Build())
}

// AddWarning is a convenience method to add a warning issue.
func (r *Result) AddWarning(code IssueType, diagnostics string, path ...string) {
	r.AddIssue(Warning(code).Diagnostics(diagnostics).At(path...).Build())
}

// HasErrors returns true if there are any error or fatal issues.
func (r *Result) HasErrors() bool { return r.count(Issue.IsError) > 0 }

// HasWarnings returns true if there are any warning issues.
func (r *Result) HasWarnings() bool { return r.count(Issue.IsWarning) > 0 }

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int { return r.count(Issue.IsError) }

// WarningCount returns the number of warning issues.
func (r *Result) WarningCount() int { return r.count(Issue.IsWarning) }

// Errors returns all error and fatal issues.
func (r *Result) Errors() []Issue { return r.filter(Issue.IsError) }

// Warnings returns all warning issues.
func (r *Result) Warnings() []Issue { return r.filter(Issue.IsWarning) }

// First returns the first error issue. A check stops at the first
// mismatch, so for results produced by the engine this is the mismatch.
func (r *Result) First() (Issue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, issue := range r.Issues {
		if issue.IsError() {
			return issue, true
		}
	}
	return Issue{}, false
}

func (r *Result) count(keep func(Issue) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, issue := range r.Issues {
		if keep(issue) {
			n++
		}
	}
	return n
}

func (r *Result) filter(keep func(Issue) bool) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Issue
	for _, issue := range r.Issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Merge combines another result into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	other.mu.Lock()
	issues := make([]Issue, len(other.Issues))
	copy(issues, other.Issues)
	other.mu.Unlock()

	r.AddIssues(issues)
}

// Clone creates a copy of the result (not pooled).
func (r *Result) Clone() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := &Result{
		Valid:      r.Valid,
		Issues:     make([]Issue, len(r.Issues)),
		JobID:      r.JobID,
		Source:     r.Source,
		Descriptor: r.Descriptor,
	}
	copy(clone.Issues, r.Issues)
	return clone
}

// NewResult creates a new (non-pooled) result.
// Prefer AcquireResult() for better performance.
func NewResult() *Result {
	return &Result{
		Valid:  true,
		Issues: make([]Issue, 0, 8),
	}
}
