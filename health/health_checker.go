// Package health provides health checking functionality for the drug catalog API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/drugcatalog-api/interfaces"
)

// stalledAfterIntervals marks the drift job as stalled after this many missed intervals
const stalledAfterIntervals = 3

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store         interfaces.DrugStore
	drift         interfaces.DriftReporter
	driftInterval time.Duration
	startedAt     time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// drift may be nil when no drift check is scheduled; driftInterval is the
// period of that check.
func NewHealthChecker(store interfaces.DrugStore, drift interfaces.DriftReporter, driftInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:         store,
		drift:         drift,
		driftInterval: driftInterval,
		startedAt:     time.Now(),
	}
}

// HealthCheck returns HTTP-specific health data.
// An empty catalog is unhealthy; a data file that changed since startup, or a
// drift check that stopped running, is reported as degraded.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	records := h.store.Count()
	loadedAt := h.store.LoadedAt()
	uptime := time.Since(h.startedAt)

	var drifted bool
	var lastCheck time.Time
	if h.drift != nil {
		drifted = h.drift.DatasetDrifted()
		lastCheck = h.drift.LastDriftCheck()
	}

	checkStalled := h.drift != nil && h.driftCheckStalled(lastCheck, loadedAt)

	switch {
	case records == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case drifted, checkStalled:
		// Still serving the loaded data, so the endpoint stays 200
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	checksum := h.store.Checksum()
	if len(checksum) > 12 {
		checksum = checksum[:12]
	}

	data = map[string]any{
		"records":         records,
		"loaded_at":       loadedAt.Format(time.RFC3339),
		"uptime_hours":    math.Round(uptime.Hours()*10) / 10,
		"dataset":         checksum,
		"dataset_drifted": drifted,
	}
	if !lastCheck.IsZero() {
		data["last_drift_check"] = lastCheck.Format(time.RFC3339)
	}

	return status, data, httpStatus
}

// driftCheckStalled reports whether the drift check has not succeeded for
// several intervals, counting from the load when it never succeeded
func (h *HealthCheckerImpl) driftCheckStalled(lastCheck, loadedAt time.Time) bool {
	if h.driftInterval <= 0 {
		return false
	}

	since := loadedAt
	if !lastCheck.IsZero() {
		since = lastCheck
	}
	return time.Since(since) > stalledAfterIntervals*h.driftInterval
}
