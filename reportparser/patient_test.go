package reportparser

import (
	"encoding/json"
	"testing"
)

func TestSampleStateProjection(t *testing.T) {
	doc := `{
		"pgxGenes": [],
		"sampleState": {
			"sampleName": "S-001",
			"patientName": "Jane Doe",
			"reportDate": "2024-03-01",
			"sampleNote": "",
			"drugs": ["warfarin", "codeine"],
			"dob": "1980-01-01",
			"sex": "F",
			"orderingPhysician": "Dr. Who",
			"facility": "General",
			"specimenSite": "Buccal",
			"dateOrdered": "2024-02-20",
			"labInternalId": "should be dropped"
		}
	}`

	_, patient := normalizeString(t, doc)
	if patient == nil {
		t.Fatal("Expected patient info from sampleState")
	}
	if patient.SampleName != "S-001" || patient.PatientName != "Jane Doe" {
		t.Errorf("Expected names projected, got %+v", patient)
	}
	if len(patient.Drugs) != 2 || patient.Drugs[1] != "codeine" {
		t.Errorf("Expected drugs list projected, got %v", patient.Drugs)
	}
	if patient.Raw != nil {
		t.Errorf("Expected no raw block from sampleState, got %s", patient.Raw)
	}

	data, err := json.Marshal(patient)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(keys) != 11 {
		t.Errorf("Expected exactly 11 keys, got %d: %s", len(keys), data)
	}
	if _, ok := keys["labInternalId"]; ok {
		t.Error("Expected labInternalId to be ignored")
	}
}

func TestPatientInfoPassthrough(t *testing.T) {
	block := `{"patientName":"Ann","dob":19800101,"drugs":"warfarin","age":42}`
	doc := `{
		"drugRecommendations": [],
		"patientInfo": ` + block + `,
		"sampleState": {"patientName": "ignored"}
	}`

	_, patient := normalizeString(t, doc)
	if patient == nil {
		t.Fatal("Expected patient info")
	}
	if patient.PatientName != "Ann" {
		t.Errorf("Expected patientInfo to win over sampleState, got %q", patient.PatientName)
	}

	data, err := json.Marshal(patient)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != block {
		t.Errorf("Expected patientInfo unchanged\nwant %s\ngot  %s", block, data)
	}

	// Embedded in a larger response the block is still emitted as given
	wrapped, err := json.Marshal(map[string]any{"patient": patient})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if want := `{"patient":` + block + `}`; string(wrapped) != want {
		t.Errorf("Expected %s, got %s", want, wrapped)
	}
}

func TestPatientInfoNonObjectPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"array", `[1,2]`},
		{"string", `"see attached"`},
		{"true", `true`},
		{"number", `7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, patient := normalizeString(t, `{"pgxGenes": [], "patientInfo": `+tt.block+`}`)
			if patient == nil {
				t.Fatal("Expected patient info")
			}
			data, err := json.Marshal(patient)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.block {
				t.Errorf("Expected %s, got %s", tt.block, data)
			}
		})
	}
}

func TestFalsyPatientInfoFallsBackToSampleState(t *testing.T) {
	for _, block := range []string{`false`, `0`, `""`, `null`} {
		t.Run(block, func(t *testing.T) {
			doc := `{"pgxGenes": [], "patientInfo": ` + block + `, "sampleState": {"patientName": "Jane"}}`
			_, patient := normalizeString(t, doc)
			if patient == nil {
				t.Fatal("Expected patient info from sampleState")
			}
			if patient.PatientName != "Jane" || patient.Raw != nil {
				t.Errorf("Expected sampleState projection, got %+v", patient)
			}
		})
	}
}

func TestPatientInfoAbsentOrInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"absent", `{"pgxGenes": []}`},
		{"null sampleState", `{"pgxGenes": [], "sampleState": null}`},
		{"string sampleState", `{"pgxGenes": [], "sampleState": "nope"}`},
		{"falsy patientInfo only", `{"pgxGenes": [], "patientInfo": false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, patient := normalizeString(t, tt.input)
			if patient != nil {
				t.Errorf("Expected no patient info, got %+v", patient)
			}
		})
	}
}
