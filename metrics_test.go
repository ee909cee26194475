package typematch

import (
	"sync"
	"testing"
	"time"
)

func TestMetrics_Basic(t *testing.T) {
	m := NewMetrics()

	if m.ChecksTotal() != 0 {
		t.Errorf("ChecksTotal() = %d; want 0", m.ChecksTotal())
	}

	m.RecordCheck(100*time.Microsecond, true)

	if m.ChecksTotal() != 1 {
		t.Errorf("ChecksTotal() = %d; want 1", m.ChecksTotal())
	}
	if m.ChecksPassed() != 1 {
		t.Errorf("ChecksPassed() = %d; want 1", m.ChecksPassed())
	}
}

func TestMetrics_PassRate(t *testing.T) {
	m := NewMetrics()

	if rate := m.PassRate(); rate != 0 {
		t.Errorf("PassRate() = %f; want 0", rate)
	}

	m.RecordCheck(time.Microsecond, true)
	m.RecordCheck(time.Microsecond, true)
	m.RecordCheck(time.Microsecond, false)

	rate := m.PassRate()
	expected := 2.0 / 3.0
	if rate < expected-0.01 || rate > expected+0.01 {
		t.Errorf("PassRate() = %f; want ~%f", rate, expected)
	}
}

func TestMetrics_CheckTime(t *testing.T) {
	m := NewMetrics()

	if avg := m.AverageCheckTime(); avg != 0 {
		t.Errorf("AverageCheckTime() = %v; want 0", avg)
	}
	if minT := m.MinCheckTime(); minT != 0 {
		t.Errorf("MinCheckTime() = %v; want 0", minT)
	}

	m.RecordCheck(100*time.Millisecond, true)
	m.RecordCheck(200*time.Millisecond, true)
	m.RecordCheck(300*time.Millisecond, true)

	if avg := m.AverageCheckTime(); avg != 200*time.Millisecond {
		t.Errorf("AverageCheckTime() = %v; want 200ms", avg)
	}
	if minT := m.MinCheckTime(); minT != 100*time.Millisecond {
		t.Errorf("MinCheckTime() = %v; want 100ms", minT)
	}
	if maxT := m.MaxCheckTime(); maxT != 300*time.Millisecond {
		t.Errorf("MaxCheckTime() = %v; want 300ms", maxT)
	}
}

func TestMetrics_Cache(t *testing.T) {
	m := NewMetrics()

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	if m.CacheHits() != 3 || m.CacheMisses() != 1 {
		t.Errorf("CacheHits/Misses = %d/%d; want 3/1", m.CacheHits(), m.CacheMisses())
	}
	if rate := m.CacheHitRate(); rate != 0.75 {
		t.Errorf("CacheHitRate() = %f; want 0.75", rate)
	}
}

func TestMetrics_Issues(t *testing.T) {
	m := NewMetrics()

	m.RecordIssue(SeverityError)
	m.RecordIssue(SeverityFatal)
	m.RecordIssue(SeverityWarning)
	m.RecordIssue(SeverityInformation)

	if m.ErrorsTotal() != 2 {
		t.Errorf("ErrorsTotal() = %d; want 2", m.ErrorsTotal())
	}
	if m.WarningsTotal() != 1 {
		t.Errorf("WarningsTotal() = %d; want 1", m.WarningsTotal())
	}
	if m.InfosTotal() != 1 {
		t.Errorf("InfosTotal() = %d; want 1", m.InfosTotal())
	}
}

func TestMetrics_Shapes(t *testing.T) {
	m := NewMetrics()

	m.RecordShape("union", false)
	m.RecordShape("union", true)
	m.RecordShape("mapping", false)

	stats, ok := m.ShapeStats("union")
	if !ok {
		t.Fatal("ShapeStats(union) not found")
	}
	if stats.Invocations != 2 || stats.Failures != 1 {
		t.Errorf("ShapeStats(union) = %+v; want 2 invocations, 1 failure", stats)
	}

	if _, ok := m.ShapeStats("literal"); ok {
		t.Error("ShapeStats(literal) should not exist")
	}

	all := m.AllShapeStats()
	if len(all) != 2 || all[0].Name != "mapping" || all[1].Name != "union" {
		t.Errorf("AllShapeStats() = %+v; want [mapping union]", all)
	}
}

func TestMetrics_SnapshotAndReset(t *testing.T) {
	m := NewMetrics()
	m.RecordCheck(time.Millisecond, false)
	m.RecordIssue(SeverityError)
	m.RecordShape("list", true)

	s := m.Snapshot()
	if s.ChecksTotal != 1 || s.ChecksPassed != 0 || s.ErrorsTotal != 1 || len(s.Shapes) != 1 {
		t.Errorf("Snapshot() = %+v", s)
	}

	m.Reset()
	s = m.Snapshot()
	if s.ChecksTotal != 0 || s.ErrorsTotal != 0 || len(s.Shapes) != 0 || s.MinCheckTimeNs != 0 {
		t.Errorf("Snapshot() after Reset = %+v", s)
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordCheck(time.Duration(i)*time.Microsecond, i%2 == 0)
			m.RecordShape("tuple", i%3 == 0)
		}(i)
	}
	wg.Wait()

	if m.ChecksTotal() != 100 {
		t.Errorf("ChecksTotal() = %d; want 100", m.ChecksTotal())
	}
	if m.ChecksPassed() != 50 {
		t.Errorf("ChecksPassed() = %d; want 50", m.ChecksPassed())
	}
	if stats, _ := m.ShapeStats("tuple"); stats.Invocations != 100 || stats.Failures != 34 {
		t.Errorf("ShapeStats(tuple) = %+v; want 100 invocations, 34 failures", stats)
	}
}
