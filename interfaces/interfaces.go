// Package interfaces defines core abstractions for the pharmacogenomic report API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/giygas/pgx-report-api/reportparser/entities"
)

// DataQualityReport summarizes oddities found in a normalized report.
type DataQualityReport struct {
	DuplicateDrugs            []string // Drug names seen more than once (flat reports only)
	UnnamedDrugs              int      // Records with an empty drug name
	UnrecognizedInteractions  []string // Interaction texts that are not major, moderate or minimal
	DrugsWithoutRecommendation int
	SeverityCounts            map[entities.Severity]int
}

// DataStore defines the contract for report storage.
// It provides thread-safe access to the current report with atomic
// replacement so readers never observe a half-loaded report.
type DataStore interface {
	// Data retrieval methods
	GetReport() *entities.Report
	GetDrugs() []entities.DrugRecord
	GetDrug(name string) (entities.DrugRecord, bool)
	GetViews() entities.SeverityViews
	GetPatientInfo() *entities.PatientInfo
	GetDataQuality() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(report *entities.Report, quality *DataQualityReport)
	Reset()
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for turning a report document into a Report.
type Parser interface {
	// ParseReport normalizes raw document bytes coming from origin
	ParseReport(origin entities.Origin, data []byte) (*entities.Report, error)
}

// Loader defines the contract for acquiring report documents.
type Loader interface {
	// FetchDefault retrieves the well-known default document
	FetchDefault(ctx context.Context) ([]byte, error)

	// ReadUpload reads a user-supplied document
	ReadUpload(r io.Reader) ([]byte, error)

	// Source describes where the default document lives
	Source() string
}

// Ingester loads documents into the data store.
type Ingester interface {
	// Ingest parses data and makes it the current report
	Ingest(origin entities.Origin, data []byte) (*entities.Report, error)

	// Reset clears the current report and its patient info
	Reset() error
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated refreshes of the default report.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()

	// Reload fetches and ingests the default report immediately
	Reload(ctx context.Context) (*entities.Report, error)

	// NextRun returns the next scheduled refresh, zero if none
	NextRun() time.Time
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// Report lifecycle
	ServeReportSummary(w http.ResponseWriter, r *http.Request)
	UploadReport(w http.ResponseWriter, r *http.Request)
	ResetReport(w http.ResponseWriter, r *http.Request)
	ReloadReport(w http.ResponseWriter, r *http.Request)

	// Report content
	ServeDrugs(w http.ResponseWriter, r *http.Request)
	FindDrug(w http.ResponseWriter, r *http.Request)
	ServeViews(w http.ResponseWriter, r *http.Request)
	ServePatientInfo(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures request input and loaded reports are sane.
type DataValidator interface {
	// ValidateInput validates user input strings
	ValidateInput(input string) error

	// ValidateSeverity resolves a severity bucket name
	ValidateSeverity(input string) (entities.Severity, error)

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(report *entities.Report) *DataQualityReport
}
