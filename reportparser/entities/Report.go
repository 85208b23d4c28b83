package entities

import (
	"time"

	"github.com/google/uuid"
)

// Shape names the top-level layout a report was read from.
type Shape string

const (
	ShapeFlat Shape = "drugRecommendations"
	ShapeGene Shape = "pgxGenes"
)

// Origin says where a report document came from.
type Origin string

const (
	OriginDefault Origin = "default"
	OriginUpload  Origin = "upload"
)

// Report is one normalized document: its drug records in first-seen order and
// the optional patient block. A Report is never mutated after it is built.
type Report struct {
	ID          uuid.UUID    `json:"id"`
	Origin      Origin       `json:"origin"`
	Shape       Shape        `json:"shape"`
	LoadedAt    time.Time    `json:"loadedAt"`
	Drugs       []DrugRecord `json:"drugs"`
	PatientInfo *PatientInfo `json:"patientInfo,omitempty"`
}

// SeverityViews holds the per-bucket drug lists, each sorted by drug name.
type SeverityViews struct {
	Major    []DrugRecord `json:"major"`
	Moderate []DrugRecord `json:"moderate"`
	Minimal  []DrugRecord `json:"minimal"`
}

// Bucket returns the list for a severity.
func (v SeverityViews) Bucket(s Severity) []DrugRecord {
	switch s {
	case SeverityMajor:
		return v.Major
	case SeverityModerate:
		return v.Moderate
	default:
		return v.Minimal
	}
}
