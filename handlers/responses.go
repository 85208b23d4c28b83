package handlers

import (
	"time"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

// DrugResponse is a drug record with the fields a drug picker displays
type DrugResponse struct {
	entities.DrugRecord
	Severity   entities.Severity    `json:"severity"`
	Label      string               `json:"label"`
	References []entities.Reference `json:"references"`
}

// ViewsResponse holds the three severity lists
type ViewsResponse struct {
	Major    []DrugResponse `json:"major"`
	Moderate []DrugResponse `json:"moderate"`
	Minimal  []DrugResponse `json:"minimal"`
}

// QualityResponse is the JSON form of interfaces.DataQualityReport
type QualityResponse struct {
	DuplicateDrugs             []string `json:"duplicateDrugs"`
	UnnamedDrugs               int      `json:"unnamedDrugs"`
	UnrecognizedInteractions   []string `json:"unrecognizedInteractions"`
	DrugsWithoutRecommendation int      `json:"drugsWithoutRecommendation"`
}

// ReportSummary describes the current report without its records
type ReportSummary struct {
	ID          string           `json:"id"`
	Origin      entities.Origin  `json:"origin"`
	Shape       entities.Shape   `json:"shape"`
	LoadedAt    time.Time        `json:"loadedAt"`
	Records     int              `json:"records"`
	Counts      map[string]int   `json:"counts"`
	PatientInfo bool             `json:"patientInfo"`
	Quality     *QualityResponse `json:"quality,omitempty"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

func newDrugResponse(d entities.DrugRecord) DrugResponse {
	return DrugResponse{
		DrugRecord: d,
		Severity:   d.Severity(),
		Label:      d.Label(),
		References: d.References(),
	}
}

func newDrugResponses(drugs []entities.DrugRecord) []DrugResponse {
	out := make([]DrugResponse, 0, len(drugs))
	for _, d := range drugs {
		out = append(out, newDrugResponse(d))
	}
	return out
}

func newReportSummary(report *entities.Report, views entities.SeverityViews, quality *interfaces.DataQualityReport) ReportSummary {
	counts := make(map[string]int, len(entities.Severities))
	for _, sev := range entities.Severities {
		counts[string(sev)] = len(views.Bucket(sev))
	}

	summary := ReportSummary{
		ID:          report.ID.String(),
		Origin:      report.Origin,
		Shape:       report.Shape,
		LoadedAt:    report.LoadedAt,
		Records:     len(report.Drugs),
		Counts:      counts,
		PatientInfo: report.PatientInfo != nil,
	}

	if quality != nil {
		summary.Quality = &QualityResponse{
			DuplicateDrugs:             nonNil(quality.DuplicateDrugs),
			UnnamedDrugs:               quality.UnnamedDrugs,
			UnrecognizedInteractions:   nonNil(quality.UnrecognizedInteractions),
			DrugsWithoutRecommendation: quality.DrugsWithoutRecommendation,
		}
	}
	return summary
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
