package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/drugcatalog-api/catalog"
	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// mockSource is a DatasetSource whose on-disk checksum can be changed by the test
type mockSource struct {
	sum        atomic.Value
	shouldFail atomic.Bool
	calls      atomic.Int64
}

func newMockSource(sum string) *mockSource {
	m := &mockSource{}
	m.sum.Store(sum)
	return m
}

func (m *mockSource) Load() ([]entities.DrugRecord, string, error) {
	return nil, m.sum.Load().(string), nil
}

func (m *mockSource) Checksum() (string, error) {
	m.calls.Add(1)
	if m.shouldFail.Load() {
		return "", errors.New("read failed")
	}
	return m.sum.Load().(string), nil
}

func (m *mockSource) Path() string { return "testdata/drugs.json" }

type mockPruner struct {
	calls atomic.Int64
	idle  atomic.Int64
}

func (m *mockPruner) Prune(idle time.Duration) int {
	m.calls.Add(1)
	m.idle.Store(int64(idle))
	return 3
}

func testStore(checksum string) *catalog.Catalog {
	return catalog.New([]entities.DrugRecord{{Name: "Aspirin"}, {Name: "Warfarin"}}, checksum)
}

func TestScheduler_NoDrift(t *testing.T) {
	s := NewScheduler(testStore("abc"), newMockSource("abc"), nil, time.Hour)

	s.checkDrift()

	if s.DatasetDrifted() {
		t.Error("Expected no drift when checksums match")
	}
	if s.LastDriftCheck().IsZero() {
		t.Error("Expected last drift check to be recorded")
	}
	if got := testutil.ToFloat64(metrics.DatasetDrift); got != 0 {
		t.Errorf("Expected drift gauge 0, got %v", got)
	}
}

func TestScheduler_DetectsDriftAndRecovery(t *testing.T) {
	source := newMockSource("abc")
	s := NewScheduler(testStore("abc"), source, nil, time.Hour)

	source.sum.Store("def")
	s.checkDrift()

	if !s.DatasetDrifted() {
		t.Fatal("Expected drift after data file changed")
	}
	if got := testutil.ToFloat64(metrics.DatasetDrift); got != 1 {
		t.Errorf("Expected drift gauge 1, got %v", got)
	}

	source.sum.Store("abc")
	s.checkDrift()

	if s.DatasetDrifted() {
		t.Error("Expected drift to clear when the file is restored")
	}
	if got := testutil.ToFloat64(metrics.DatasetDrift); got != 0 {
		t.Errorf("Expected drift gauge 0 after recovery, got %v", got)
	}
}

func TestScheduler_ChecksumFailureKeepsState(t *testing.T) {
	source := newMockSource("def")
	s := NewScheduler(testStore("abc"), source, nil, time.Hour)

	s.checkDrift()
	first := s.LastDriftCheck()

	source.shouldFail.Store(true)
	s.checkDrift()
	s.checkDrift()

	if !s.DatasetDrifted() {
		t.Error("A failed check should not clear the drift flag")
	}
	if !s.LastDriftCheck().Equal(first) {
		t.Error("A failed check should not update the last successful check")
	}
	if s.failedChecks.Load() != 2 {
		t.Errorf("Expected 2 consecutive failures, got %d", s.failedChecks.Load())
	}
}

func TestScheduler_MonitorStaleness(t *testing.T) {
	s := NewScheduler(testStore("abc"), newMockSource("abc"), nil, time.Minute)

	// Fresh catalog, no check yet: within the window
	s.monitorStaleness()
	if s.staleWarned.Load() {
		t.Error("Did not expect a staleness warning right after startup")
	}

	s.lastCheck.Store(time.Now().Add(-10 * time.Minute).UnixNano())
	s.monitorStaleness()
	if !s.staleWarned.Load() {
		t.Error("Expected a staleness warning after three missed intervals")
	}

	s.checkDrift()
	if s.staleWarned.Load() {
		t.Error("A successful check should reset the staleness warning")
	}
}

func TestScheduler_PruneLimiter(t *testing.T) {
	pruner := &mockPruner{}
	s := NewScheduler(testStore("abc"), newMockSource("abc"), pruner, time.Hour)

	s.pruneLimiter()

	if pruner.calls.Load() != 1 {
		t.Errorf("Expected 1 prune call, got %d", pruner.calls.Load())
	}
	if time.Duration(pruner.idle.Load()) != bucketIdleAfter {
		t.Errorf("Expected idle threshold %v, got %v", bucketIdleAfter, time.Duration(pruner.idle.Load()))
	}
}

func TestScheduler_StartRunsJobsImmediately(t *testing.T) {
	source := newMockSource("abc")
	pruner := &mockPruner{}
	s := NewScheduler(testStore("abc"), source, pruner, time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("Unexpected error during start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if source.calls.Load() > 0 && pruner.calls.Load() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if source.calls.Load() == 0 {
		t.Error("Expected drift check to run on start")
	}
	if pruner.calls.Load() == 0 {
		t.Error("Expected prune job to run on start")
	}
	if len(s.scheduler.Jobs()) != 3 {
		t.Errorf("Expected 3 jobs, got %d", len(s.scheduler.Jobs()))
	}
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(testStore("abc"), newMockSource("abc"), nil, 0)
	if s.driftInterval != time.Hour {
		t.Errorf("Expected default interval of 1h, got %v", s.driftInterval)
	}
}
