package reportparser

import (
	"encoding/json"

	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

// projectPatientInfo passes a truthy patientInfo value through untouched and
// otherwise projects the named fields out of a sampleState object.
func projectPatientInfo(doc RawReport) *entities.PatientInfo {
	if raw, ok := doc.truthy("patientInfo"); ok {
		info := &entities.PatientInfo{}
		if fields, ok := asObject(raw); ok {
			info = patientFromFields(fields)
		}
		info.Raw = raw
		return info
	}

	if raw, ok := doc.field("sampleState"); ok {
		if fields, ok := asObject(raw); ok {
			return patientFromFields(fields)
		}
		logging.Debug("Ignoring sampleState that is not an object")
	}

	return nil
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if kind(raw) != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func patientFromFields(f map[string]json.RawMessage) *entities.PatientInfo {
	return &entities.PatientInfo{
		SampleName:        text(f["sampleName"]),
		PatientName:       text(f["patientName"]),
		ReportDate:        text(f["reportDate"]),
		SampleNote:        text(f["sampleNote"]),
		Drugs:             drugList(f["drugs"]),
		Dob:               text(f["dob"]),
		Sex:               text(f["sex"]),
		OrderingPhysician: text(f["orderingPhysician"]),
		Facility:          text(f["facility"]),
		SpecimenSite:      text(f["specimenSite"]),
		DateOrdered:       text(f["dateOrdered"]),
	}
}

// drugList accepts either an array of names or a single name.
func drugList(raw json.RawMessage) []string {
	v := readValues(raw)
	if v.scalar && v.items[0] == "" {
		return nil
	}
	return v.items
}
