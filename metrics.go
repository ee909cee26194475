package typematch

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks checking statistics using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Top-level check counts
	checksTotal  atomic.Uint64
	checksPassed atomic.Uint64

	// Timing (stored as nanoseconds)
	checkTimeTotal atomic.Uint64
	checkTimeMin   atomic.Uint64
	checkTimeMax   atomic.Uint64

	// Forward reference resolution cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Issue counts by severity
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64
	infosTotal    atomic.Uint64

	// Per-shape checker counts
	shapes sync.Map // map[string]*shapeMetrics
}

// shapeMetrics tracks invocations of a single shape checker.
type shapeMetrics struct {
	invocations atomic.Uint64
	failures    atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.checkTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordCheck records a completed top-level check.
func (m *Metrics) RecordCheck(duration time.Duration, passed bool) {
	m.checksTotal.Add(1)
	if passed {
		m.checksPassed.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations measured with time.Since are non-negative
	m.checkTimeTotal.Add(ns)

	for {
		old := m.checkTimeMin.Load()
		if ns >= old || m.checkTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.checkTimeMax.Load()
		if ns <= old || m.checkTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordCacheHit records a resolver cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a resolver cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordIssue records an issue based on severity.
func (m *Metrics) RecordIssue(severity IssueSeverity) {
	switch severity {
	case SeverityError, SeverityFatal:
		m.errorsTotal.Add(1)
	case SeverityWarning:
		m.warningsTotal.Add(1)
	case SeverityInformation:
		m.infosTotal.Add(1)
	}
}

// RecordShape records one invocation of the checker for shape.
func (m *Metrics) RecordShape(shape string, failed bool) {
	sm := m.getOrCreateShape(shape)
	sm.invocations.Add(1)
	if failed {
		sm.failures.Add(1)
	}
}

func (m *Metrics) getOrCreateShape(name string) *shapeMetrics {
	if v, ok := m.shapes.Load(name); ok {
		return v.(*shapeMetrics)
	}
	actual, _ := m.shapes.LoadOrStore(name, &shapeMetrics{})
	return actual.(*shapeMetrics)
}

// --- Query Methods ---

// ChecksTotal returns the number of top-level checks performed.
func (m *Metrics) ChecksTotal() uint64 {
	return m.checksTotal.Load()
}

// ChecksPassed returns the number of top-level checks that passed.
func (m *Metrics) ChecksPassed() uint64 {
	return m.checksPassed.Load()
}

// PassRate returns the fraction of passing checks (0.0 to 1.0).
func (m *Metrics) PassRate() float64 {
	total := m.checksTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.checksPassed.Load()) / float64(total)
}

// AverageCheckTime returns the average check duration.
func (m *Metrics) AverageCheckTime() time.Duration {
	total := m.checksTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.checkTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinCheckTime returns the minimum check duration.
func (m *Metrics) MinCheckTime() time.Duration {
	minVal := m.checkTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // nanoseconds within int64 range
}

// MaxCheckTime returns the maximum check duration.
func (m *Metrics) MaxCheckTime() time.Duration {
	return time.Duration(m.checkTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// CacheHits returns the total resolver cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total resolver cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheHitRate returns the cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ErrorsTotal returns the total error issues recorded.
func (m *Metrics) ErrorsTotal() uint64 {
	return m.errorsTotal.Load()
}

// WarningsTotal returns the total warning issues recorded.
func (m *Metrics) WarningsTotal() uint64 {
	return m.warningsTotal.Load()
}

// InfosTotal returns the total informational issues recorded.
func (m *Metrics) InfosTotal() uint64 {
	return m.infosTotal.Load()
}

// ShapeStats holds counters for one shape checker.
type ShapeStats struct {
	Name        string `json:"name"`
	Invocations uint64 `json:"invocations"`
	Failures    uint64 `json:"failures"`
}

// ShapeStats returns statistics for a specific shape.
func (m *Metrics) ShapeStats(shape string) (ShapeStats, bool) {
	v, ok := m.shapes.Load(shape)
	if !ok {
		return ShapeStats{Name: shape}, false
	}
	sm := v.(*shapeMetrics)
	return ShapeStats{
		Name:        shape,
		Invocations: sm.invocations.Load(),
		Failures:    sm.failures.Load(),
	}, true
}

// AllShapeStats returns statistics for all shapes, sorted by name.
func (m *Metrics) AllShapeStats() []ShapeStats {
	var stats []ShapeStats
	m.shapes.Range(func(key, value any) bool {
		sm := value.(*shapeMetrics)
		stats = append(stats, ShapeStats{
			Name:        key.(string),
			Invocations: sm.invocations.Load(),
			Failures:    sm.failures.Load(),
		})
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ChecksTotal  uint64  `json:"checks_total"`
	ChecksPassed uint64  `json:"checks_passed"`
	PassRate     float64 `json:"pass_rate"`

	AvgCheckTimeNs uint64 `json:"avg_check_time_ns"`
	MinCheckTimeNs uint64 `json:"min_check_time_ns"`
	MaxCheckTimeNs uint64 `json:"max_check_time_ns"`

	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	ErrorsTotal   uint64 `json:"errors_total"`
	WarningsTotal uint64 `json:"warnings_total"`
	InfosTotal    uint64 `json:"infos_total"`

	Shapes []ShapeStats `json:"shapes,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	minTime := m.checkTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:      time.Now(),
		ChecksTotal:    m.checksTotal.Load(),
		ChecksPassed:   m.checksPassed.Load(),
		PassRate:       m.PassRate(),
		AvgCheckTimeNs: uint64(m.AverageCheckTime()), //nolint:gosec // non-negative duration
		MinCheckTimeNs: minTime,
		MaxCheckTimeNs: m.checkTimeMax.Load(),
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		CacheHitRate:   m.CacheHitRate(),
		ErrorsTotal:    m.errorsTotal.Load(),
		WarningsTotal:  m.warningsTotal.Load(),
		InfosTotal:     m.infosTotal.Load(),
		Shapes:         m.AllShapeStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.checksTotal.Store(0)
	m.checksPassed.Store(0)
	m.checkTimeTotal.Store(0)
	m.checkTimeMin.Store(^uint64(0))
	m.checkTimeMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.errorsTotal.Store(0)
	m.warningsTotal.Store(0)
	m.infosTotal.Store(0)

	m.shapes.Range(func(key, _ any) bool {
		m.shapes.Delete(key)
		return true
	})
}
