package entities

import "encoding/json"

// PatientInfo describes the patient and sample a report was produced for.
// Raw holds a pre-shaped patientInfo value exactly as the report supplied it;
// when set it is what marshals, and the named fields are only read from it.
type PatientInfo struct {
	SampleName        string   `json:"sampleName"`
	PatientName       string   `json:"patientName"`
	ReportDate        string   `json:"reportDate"`
	SampleNote        string   `json:"sampleNote"`
	Drugs             []string `json:"drugs"`
	Dob               string   `json:"dob"`
	Sex               string   `json:"sex"`
	OrderingPhysician string   `json:"orderingPhysician"`
	Facility          string   `json:"facility"`
	SpecimenSite      string   `json:"specimenSite"`
	DateOrdered       string   `json:"dateOrdered"`

	Raw json.RawMessage `json:"-"`
}

// patientInfoAlias drops the MarshalJSON method to avoid recursion.
type patientInfoAlias PatientInfo

func (p PatientInfo) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(patientInfoAlias(p))
}
