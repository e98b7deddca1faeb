// Package scheduler runs the background jobs of the drug catalog API. The catalog
// itself is never refreshed; the jobs watch the data file for drift, prune idle
// rate limiter buckets and warn when the drift check stops succeeding.
package scheduler

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/giygas/drugcatalog-api/interfaces"
	"github.com/giygas/drugcatalog-api/logging"
	"github.com/giygas/drugcatalog-api/metrics"
	"github.com/go-co-op/gocron"
)

const (
	pruneInterval   = 5 * time.Minute
	bucketIdleAfter = 10 * time.Minute
)

// Compile-time checks to ensure Scheduler implements the scheduler and drift interfaces
var (
	_ interfaces.Scheduler     = (*Scheduler)(nil)
	_ interfaces.DriftReporter = (*Scheduler)(nil)
)

// Pruner drops rate limiter state for clients idle longer than idle and returns
// the number of buckets removed.
type Pruner interface {
	Prune(idle time.Duration) int
}

// Scheduler handles drift detection and housekeeping using dependency injection
type Scheduler struct {
	store         interfaces.DrugStore
	source        interfaces.DatasetSource
	pruner        Pruner
	driftInterval time.Duration
	scheduler     *gocron.Scheduler

	drifted       atomic.Bool
	lastCheck     atomic.Int64 // unix nanoseconds of the last successful check
	staleWarned   atomic.Bool
	failedChecks  atomic.Int64
	currentOnDisk atomic.Value // string, checksum seen at the last check
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// pruner may be nil when rate limiting is disabled.
func NewScheduler(store interfaces.DrugStore, source interfaces.DatasetSource, pruner Pruner, driftInterval time.Duration) *Scheduler {
	if driftInterval <= 0 {
		driftInterval = time.Hour
	}
	return &Scheduler{
		store:         store,
		source:        source,
		pruner:        pruner,
		driftInterval: driftInterval,
		scheduler:     gocron.NewScheduler(time.Local),
	}
}

// Start schedules the jobs and starts them asynchronously. Every job also runs once immediately.
func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(s.driftInterval).Do(s.checkDrift); err != nil {
		logging.Error("Failed to schedule drift check", "error", err)
		return fmt.Errorf("failed to schedule drift check: %w", err)
	}

	if s.pruner != nil {
		if _, err := s.scheduler.Every(pruneInterval).Do(s.pruneLimiter); err != nil {
			logging.Error("Failed to schedule rate limiter pruning", "error", err)
			return fmt.Errorf("failed to schedule rate limiter pruning: %w", err)
		}
	}

	if _, err := s.scheduler.Every(1).Hours().Do(s.monitorStaleness); err != nil {
		logging.Error("Failed to schedule staleness monitor", "error", err)
		return fmt.Errorf("failed to schedule staleness monitor: %w", err)
	}

	s.scheduler.StartAsync()

	logging.Info("Scheduler started",
		"drift_interval", s.driftInterval.String(),
		"jobs", len(s.scheduler.Jobs()),
	)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// DatasetDrifted reports whether the data file differed from the loaded dataset at the last check
func (s *Scheduler) DatasetDrifted() bool {
	return s.drifted.Load()
}

// LastDriftCheck returns when the drift check last succeeded, zero before the first one
func (s *Scheduler) LastDriftCheck() time.Time {
	ns := s.lastCheck.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// checkDrift compares the checksum of the data file with the one the catalog was built from
func (s *Scheduler) checkDrift() {
	sum, err := s.source.Checksum()
	if err != nil {
		failed := s.failedChecks.Add(1)
		logging.Error("Dataset drift check failed", "path", s.source.Path(), "consecutive_failures", failed, "error", err)
		return
	}
	s.failedChecks.Store(0)

	drifted := sum != s.store.Checksum()
	previous, _ := s.currentOnDisk.Swap(sum).(string)
	wasDrifted := s.drifted.Swap(drifted)

	s.lastCheck.Store(time.Now().UnixNano())
	s.staleWarned.Store(false)

	if drifted {
		metrics.DatasetDrift.Set(1)
		// Log once per distinct file version
		if !wasDrifted || previous != sum {
			logging.Warn("Data file changed since startup, restart to serve the new dataset",
				"path", s.source.Path(),
				"loaded", shortSum(s.store.Checksum()),
				"on_disk", shortSum(sum),
			)
		}
		return
	}

	metrics.DatasetDrift.Set(0)
	if wasDrifted {
		logging.Info("Data file matches the loaded dataset again", "path", s.source.Path())
	}
	logging.Debug("Dataset drift check completed", "checksum", shortSum(sum))
}

// pruneLimiter drops idle rate limiter buckets
func (s *Scheduler) pruneLimiter() {
	removed := s.pruner.Prune(bucketIdleAfter)
	logging.Debug("Rate limiter pruned", "removed", removed)
}

// monitorStaleness warns once when the drift check has not succeeded for three intervals
func (s *Scheduler) monitorStaleness() {
	last := s.LastDriftCheck()
	since := s.store.LoadedAt()
	if !last.IsZero() {
		since = last
	}

	limit := 3 * s.driftInterval
	if time.Since(since) <= limit {
		return
	}

	if s.staleWarned.CompareAndSwap(false, true) {
		logging.Warn(fmt.Sprintf("Dataset drift check hasn't succeeded in over %s", limit),
			"last_success", last.Format(time.RFC3339),
		)
	}
}

func shortSum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
