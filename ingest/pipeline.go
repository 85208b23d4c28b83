// Package ingest runs one report load from raw bytes to the data store.
package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/metrics"
	"github.com/giygas/pgx-report-api/reportparser"
	"github.com/giygas/pgx-report-api/reportparser/entities"
	"github.com/giygas/pgx-report-api/validation"
)

// ErrUpdateInProgress is returned when another load holds the store.
var ErrUpdateInProgress = errors.New("another report load is in progress")

// Compile-time check to ensure Pipeline implements Ingester interface
var _ interfaces.Ingester = (*Pipeline)(nil)

// Pipeline parses a document, checks its quality and swaps it into the store.
// A failed load leaves the store untouched.
type Pipeline struct {
	store     interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
}

func NewPipeline(store interfaces.DataStore, parser interfaces.Parser, validator interfaces.DataValidator) *Pipeline {
	return &Pipeline{
		store:     store,
		parser:    parser,
		validator: validator,
	}
}

// Ingest loads data as the current report
func (p *Pipeline) Ingest(origin entities.Origin, data []byte) (*entities.Report, error) {
	if !p.store.BeginUpdate() {
		metrics.RecordLoad(string(origin), metrics.ResultBusy)
		return nil, ErrUpdateInProgress
	}
	defer p.store.EndUpdate()

	start := time.Now()

	report, err := p.parser.ParseReport(origin, data)
	if err != nil {
		metrics.RecordLoad(string(origin), ResultFor(err))
		logging.Warn("Report load failed", "origin", origin, "error", err)
		return nil, fmt.Errorf("failed to load %s report: %w", origin, err)
	}

	quality := p.validator.ReportDataQuality(report)
	validation.LogDataQuality(quality)

	p.store.UpdateData(report, quality)

	counts := make(map[string]int, len(quality.SeverityCounts))
	for sev, n := range quality.SeverityCounts {
		counts[string(sev)] = n
	}
	metrics.SetRecordCounts(counts)
	metrics.RecordLoad(string(origin), metrics.ResultSuccess)
	metrics.ReportLastLoad.SetToCurrentTime()

	logging.Info("Report loaded",
		"report_id", report.ID,
		"origin", origin,
		"shape", report.Shape,
		"records", len(report.Drugs),
		"patient_info", report.PatientInfo != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}

// Reset clears the current report
func (p *Pipeline) Reset() error {
	if !p.store.BeginUpdate() {
		return ErrUpdateInProgress
	}
	defer p.store.EndUpdate()

	p.store.Reset()
	metrics.SetRecordCounts(nil)
	logging.Info("Report cleared")
	return nil
}

// ResultFor maps a load error to the result label of the load counter
func ResultFor(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrUpdateInProgress):
		return metrics.ResultBusy
	case errors.Is(err, reportparser.ErrFetchUnavailable):
		return metrics.ResultUnavailable
	case errors.Is(err, reportparser.ErrParse):
		return metrics.ResultParseError
	default:
		return metrics.ResultShapeError
	}
}
