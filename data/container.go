// Package data provides thread-safe storage for the currently loaded pharmacogenomic report.
// The report and everything derived from it (sorted list, severity views, name index)
// live in one immutable snapshot that is swapped atomically, so readers never see
// records from one load next to patient info from another.
package data

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/reportparser"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

// Compile-time check to ensure ReportContainer implements DataStore
var _ interfaces.DataStore = (*ReportContainer)(nil)

type snapshot struct {
	report  *entities.Report
	sorted  []entities.DrugRecord
	views   entities.SeverityViews
	byName  map[string]int // exact name -> index in report.Drugs
	byFold  map[string]int // lower-cased name -> index in report.Drugs
	quality *interfaces.DataQualityReport
	updated time.Time
}

// ReportContainer holds the current report snapshot
type ReportContainer struct {
	sorter          *reportparser.Sorter
	current         atomic.Pointer[snapshot]
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewReportContainer creates an empty container. A nil sorter orders names byte-wise.
func NewReportContainer(sorter *reportparser.Sorter) *ReportContainer {
	rc := &ReportContainer{sorter: sorter}
	rc.current.Store(rc.build(nil, nil, time.Time{}))
	rc.serverStartTime.Store(time.Time{})
	return rc
}

func (rc *ReportContainer) build(report *entities.Report, quality *interfaces.DataQualityReport, at time.Time) *snapshot {
	var drugs []entities.DrugRecord
	if report != nil {
		drugs = report.Drugs
	}

	s := &snapshot{
		report:  report,
		sorted:  rc.sorter.Sort(drugs),
		views:   rc.sorter.Views(drugs),
		byName:  make(map[string]int, len(drugs)),
		byFold:  make(map[string]int, len(drugs)),
		quality: quality,
		updated: at,
	}

	// First occurrence wins for flat reports that repeat a name.
	for i, d := range drugs {
		if _, ok := s.byName[d.Drug]; !ok {
			s.byName[d.Drug] = i
		}
		folded := strings.ToLower(d.Drug)
		if _, ok := s.byFold[folded]; !ok {
			s.byFold[folded] = i
		}
	}
	return s
}

func (rc *ReportContainer) snap() *snapshot {
	return rc.current.Load()
}

// GetReport returns the current report, nil when nothing is loaded
func (rc *ReportContainer) GetReport() *entities.Report {
	return rc.snap().report
}

// GetDrugs returns the drug records sorted by name
func (rc *ReportContainer) GetDrugs() []entities.DrugRecord {
	return rc.snap().sorted
}

// GetDrug looks a drug up by exact name, then case-insensitively
func (rc *ReportContainer) GetDrug(name string) (entities.DrugRecord, bool) {
	s := rc.snap()
	if s.report == nil {
		return entities.DrugRecord{}, false
	}

	if i, ok := s.byName[name]; ok {
		return s.report.Drugs[i], true
	}
	if i, ok := s.byFold[strings.ToLower(name)]; ok {
		return s.report.Drugs[i], true
	}
	return entities.DrugRecord{}, false
}

// GetViews returns the three severity buckets
func (rc *ReportContainer) GetViews() entities.SeverityViews {
	return rc.snap().views
}

// GetPatientInfo returns the patient block of the current report, if any
func (rc *ReportContainer) GetPatientInfo() *entities.PatientInfo {
	if r := rc.snap().report; r != nil {
		return r.PatientInfo
	}
	return nil
}

// GetDataQuality returns the quality report computed when the current report was loaded
func (rc *ReportContainer) GetDataQuality() *interfaces.DataQualityReport {
	return rc.snap().quality
}

// GetLastUpdated returns when the store last changed, zero if never
func (rc *ReportContainer) GetLastUpdated() time.Time {
	return rc.snap().updated
}

// IsUpdating returns true if a load is currently in progress
func (rc *ReportContainer) IsUpdating() bool {
	return rc.updating.Load()
}

// SetServerStartTime sets the server start time
func (rc *ReportContainer) SetServerStartTime(startTime time.Time) {
	rc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (rc *ReportContainer) GetServerStartTime() time.Time {
	if startTime, ok := rc.serverStartTime.Load().(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

// UpdateData replaces the current report in one atomic swap
func (rc *ReportContainer) UpdateData(report *entities.Report, quality *interfaces.DataQualityReport) {
	rc.current.Store(rc.build(report, quality, time.Now()))
}

// Reset clears the records and the patient info together
func (rc *ReportContainer) Reset() {
	rc.current.Store(rc.build(nil, nil, time.Now()))
}

// BeginUpdate marks the start of a load.
// Returns true if the load can proceed, false if another one is in progress
func (rc *ReportContainer) BeginUpdate() bool {
	return rc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a load
func (rc *ReportContainer) EndUpdate() {
	rc.updating.Store(false)
}

// SeverityCounts returns the number of records per severity in the current report
func (rc *ReportContainer) SeverityCounts() map[string]int {
	views := rc.GetViews()
	counts := make(map[string]int, len(entities.Severities))
	for _, sev := range entities.Severities {
		counts[string(sev)] = len(views.Bucket(sev))
	}
	return counts
}
