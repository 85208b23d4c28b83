package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/giygas/pgx-report-api/reportparser/entities"
)

func drugNames(drugs []DrugResponse) []string {
	names := make([]string, len(drugs))
	for i, d := range drugs {
		names[i] = d.Drug
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestServeDrugs(t *testing.T) {
	h := newHarness(t, 1<<20)
	h.load(geneReport)

	tests := []struct {
		name           string
		query          url.Values
		expectedStatus int
		expectedNames  []string
	}{
		{"all drugs sorted", nil, http.StatusOK, []string{"codeine", "tramadol", "warfarin"}},
		{"major bucket", url.Values{"severity": {"major"}}, http.StatusOK, []string{"codeine"}},
		{"severity ignores case", url.Values{"severity": {"MODERATE"}}, http.StatusOK, []string{"tramadol"}},
		{"contraindicated is minimal", url.Values{"severity": {"minimal"}}, http.StatusOK, []string{"warfarin"}},
		{"search", url.Values{"search": {"AM"}}, http.StatusOK, []string{"tramadol"}},
		{"search within bucket", url.Values{"severity": {"major"}, "search": {"war"}}, http.StatusOK, []string{}},
		{"invalid severity", url.Values{"severity": {"severe"}}, http.StatusBadRequest, nil},
		{"dangerous search", url.Values{"search": {"<script>"}}, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/v1/drugs"
			if tt.query != nil {
				path += "?" + tt.query.Encode()
			}
			rr := ExecuteRequest(h.handler.ServeDrugs, http.MethodGet, path, nil, nil)

			if tt.expectedStatus != http.StatusOK {
				assertErrorResponse(t, rr, tt.expectedStatus)
				return
			}

			var drugs []DrugResponse
			assertJSONResponse(t, rr, http.StatusOK, &drugs)
			if got := drugNames(drugs); !equalNames(got, tt.expectedNames) {
				t.Errorf("Expected %v, got %v", tt.expectedNames, got)
			}
		})
	}
}

func TestServeDrugsEmptyStore(t *testing.T) {
	h := newHarness(t, 1<<20)

	rr := ExecuteRequest(h.handler.ServeDrugs, http.MethodGet, "/v1/drugs", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "[]" {
		t.Errorf("Expected empty list, got %s", rr.Body.String())
	}
}

func TestServeDrugsDisplayFields(t *testing.T) {
	h := newHarness(t, 1<<20)
	h.load(geneReport)

	var drugs []DrugResponse
	rr := ExecuteRequest(h.handler.ServeDrugs, http.MethodGet, "/v1/drugs", nil, nil)
	assertJSONResponse(t, rr, http.StatusOK, &drugs)
	if len(drugs) != 3 {
		t.Fatalf("Expected 3 drugs, got %d", len(drugs))
	}

	codeine, tramadol, warfarin := drugs[0], drugs[1], drugs[2]

	if codeine.Label != "codeine (Analgesic, Opioid)" {
		t.Errorf("Expected codeine label, got %q", codeine.Label)
	}
	if codeine.Severity != entities.SeverityMajor {
		t.Errorf("Expected major severity, got %s", codeine.Severity)
	}
	if len(codeine.References) != 2 || codeine.References[0].Title != "DrugBank Label" || codeine.References[1].Title != "CPIC Guideline" {
		t.Errorf("Expected DrugBank and CPIC references, got %v", codeine.References)
	}

	if tramadol.Recommendation != "Consider an alternative." {
		t.Errorf("Expected positional recommendation, got %q", tramadol.Recommendation)
	}
	if len(tramadol.References) != 0 {
		t.Errorf("Expected no references for tramadol, got %v", tramadol.References)
	}

	if warfarin.Label != "warfarin (Unknown, Unknown)" {
		t.Errorf("Expected Unknown placeholders, got %q", warfarin.Label)
	}
	if warfarin.Interaction != "Contraindicated" {
		t.Errorf("Expected free interaction text to be kept, got %q", warfarin.Interaction)
	}
}

func TestFindDrug(t *testing.T) {
	h := newHarness(t, 1<<20)
	h.load(geneReport)

	tests := []struct {
		name           string
		param          string
		expectedStatus int
	}{
		{"exact name", "codeine", http.StatusOK},
		{"case-insensitive", "CODEINE", http.StatusOK},
		{"unknown drug", "aspirin", http.StatusNotFound},
		{"missing name", "", http.StatusBadRequest},
		{"dangerous input", "x; drop table", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ExecuteRequest(h.handler.FindDrug, http.MethodGet, "/v1/drugs/x", nil, map[string]string{"name": tt.param})

			if tt.expectedStatus != http.StatusOK {
				assertErrorResponse(t, rr, tt.expectedStatus)
				return
			}

			var drug DrugResponse
			assertJSONResponse(t, rr, http.StatusOK, &drug)
			if drug.Drug != "codeine" || drug.Gene != "CYP2D6" {
				t.Errorf("Expected codeine/CYP2D6, got %s/%s", drug.Drug, drug.Gene)
			}
		})
	}
}

func TestServeViews(t *testing.T) {
	h := newHarness(t, 1<<20)
	h.load(flatReport)

	var views ViewsResponse
	rr := ExecuteRequest(h.handler.ServeViews, http.MethodGet, "/v1/views", nil, nil)
	assertJSONResponse(t, rr, http.StatusOK, &views)

	if got := drugNames(views.Major); !equalNames(got, []string{"abacavir"}) {
		t.Errorf("Expected abacavir in major, got %v", got)
	}
	if len(views.Moderate) != 0 {
		t.Errorf("Expected empty moderate view, got %v", drugNames(views.Moderate))
	}
	if got := drugNames(views.Minimal); !equalNames(got, []string{"Sertraline"}) {
		t.Errorf("Expected Sertraline in minimal, got %v", got)
	}
}

func TestServeViewsEmptyStore(t *testing.T) {
	h := newHarness(t, 1<<20)

	rr := ExecuteRequest(h.handler.ServeViews, http.MethodGet, "/v1/views", nil, nil)
	want := `{"major":[],"moderate":[],"minimal":[]}`
	if rr.Body.String() != want {
		t.Errorf("Expected %s, got %s", want, rr.Body.String())
	}
}
