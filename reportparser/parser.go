package reportparser

import (
	"time"

	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/reportparser/entities"
	"github.com/google/uuid"
)

// Compile-time check to ensure ReportParser implements Parser interface
var _ interfaces.Parser = (*ReportParser)(nil)

// ReportParser implements the Parser interface
type ReportParser struct {
	now func() time.Time
}

// NewReportParser creates a new ReportParser instance
func NewReportParser() *ReportParser {
	return &ReportParser{now: time.Now}
}

// ParseReport decodes and normalizes a document. Every successful call yields a
// new Report with its own ID; earlier reports are never modified.
func (p *ReportParser) ParseReport(origin entities.Origin, data []byte) (*entities.Report, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	shape, err := DetectShape(doc)
	if err != nil {
		return nil, err
	}

	drugs, patient, err := Normalize(doc)
	if err != nil {
		return nil, err
	}

	return &entities.Report{
		ID:          uuid.New(),
		Origin:      origin,
		Shape:       shape,
		LoadedAt:    p.now(),
		Drugs:       drugs,
		PatientInfo: patient,
	}, nil
}
