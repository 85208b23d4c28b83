// Package health provides health checking functionality for the report API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

// Data age thresholds for reports loaded from the default source.
// Uploaded reports never go stale.
const (
	degradedAge  = 25 * time.Hour
	unhealthyAge = 48 * time.Hour
)

// NextRunner reports the next scheduled refresh
type NextRunner interface {
	NextRun() time.Time
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	schedule  NextRunner
	source    string
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// schedule may be nil when no refresh is scheduled.
func NewHealthChecker(dataStore interfaces.DataStore, schedule NextRunner, source string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		schedule:  schedule,
		source:    source,
		now:       time.Now,
	}
}

// HealthCheck returns the status, the data behind it and the HTTP code for /health.
// An empty store is degraded but still serves 200: the service waits for an upload.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	report := h.dataStore.GetReport()
	views := h.dataStore.GetViews()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	now := h.now()

	records := 0
	if report != nil {
		records = len(report.Drugs)
	}

	var dataAge time.Duration
	if !lastUpdate.IsZero() {
		dataAge = now.Sub(lastUpdate)
	}
	ages := report != nil && report.Origin == entities.OriginDefault

	switch {
	case report == nil || records == 0:
		status = "degraded"
		httpStatus = http.StatusOK

	case ages && dataAge > unhealthyAge:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case ages && dataAge > degradedAge:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"records":        records,
		"major":          len(views.Major),
		"moderate":       len(views.Moderate),
		"minimal":        len(views.Minimal),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"is_updating":    isUpdating,
		"source":         h.source,
	}

	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
	}
	if report != nil {
		data["report_id"] = report.ID.String()
		data["origin"] = string(report.Origin)
		data["patient_info"] = report.PatientInfo != nil
	}
	if next := h.CalculateNextUpdate(); !next.IsZero() {
		data["next_update"] = next.Format(time.RFC3339)
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(now.Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh, zero when none is scheduled
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	if h.schedule == nil {
		return time.Time{}
	}
	return h.schedule.NextRun()
}
