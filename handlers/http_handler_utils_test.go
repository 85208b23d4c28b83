package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/pgx-report-api/data"
	"github.com/giygas/pgx-report-api/ingest"
	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/loader"
	"github.com/giygas/pgx-report-api/reportparser"
	"github.com/giygas/pgx-report-api/reportparser/entities"
	"github.com/giygas/pgx-report-api/validation"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA
// ============================================================================

const geneReport = `{
	"pgxGenes": [
		{
			"Gene": "CYP2D6",
			"Diplotype": "*4/*4",
			"Phenotype": "Poor Metabolizer",
			"Drug": ["codeine", "tramadol"],
			"InteractionStrength": ["Major", "Moderate"],
			"Recommendation": ["Avoid codeine.", "Consider an alternative."],
			"DrugCategory": ["Analgesic"],
			"DrugClass": ["Opioid"],
			"DrugBankLabelURL": ["https://go.drugbank.com/drugs/DB00318"],
			"GuidelineURL": ["https://cpicpgx.org/guidelines/codeine"]
		},
		{
			"Gene": "VKORC1",
			"Drug": ["warfarin"],
			"InteractionStrength": ["Contraindicated"]
		}
	],
	"sampleState": {"patientName": "Jane Doe", "mrn": "12345"}
}`

const flatReport = `{
	"drugRecommendations": [
		{"drug": "Sertraline", "gene": "CYP2C19", "interaction": "minimal"},
		{"drug": "abacavir", "gene": "HLA-B", "interaction": "Major"}
	]
}`

// ============================================================================
// MOCKS
// ============================================================================

// MockReloader returns a fixed result from Reload
type MockReloader struct {
	report *entities.Report
	err    error
	calls  int
}

func (m *MockReloader) Reload(ctx context.Context) (*entities.Report, error) {
	m.calls++
	return m.report, m.err
}

// MockHealthChecker returns a fixed health status
type MockHealthChecker struct {
	status     string
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"records": 3}, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Time{}
}

// ============================================================================
// TEST HARNESS
// ============================================================================

// handlerHarness wires a handler to real store, loader and pipeline
type handlerHarness struct {
	t        *testing.T
	store    *data.ReportContainer
	pipeline *ingest.Pipeline
	reloader *MockReloader
	handler  *HTTPHandlerImpl
}

func newHarness(t *testing.T, maxUpload int64) *handlerHarness {
	t.Helper()

	store := data.NewReportContainer(nil)
	validator := validation.NewDataValidator()
	pipeline := ingest.NewPipeline(store, reportparser.NewReportParser(), validator)
	reloader := &MockReloader{}
	health := &MockHealthChecker{status: "healthy", httpStatus: http.StatusOK}

	handler := NewHTTPHandler(store, validator, loader.NewReportLoader("", time.Second, maxUpload), pipeline, reloader, health)

	return &handlerHarness{
		t:        t,
		store:    store,
		pipeline: pipeline,
		reloader: reloader,
		handler:  handler.(*HTTPHandlerImpl),
	}
}

// load ingests a report document directly
func (h *handlerHarness) load(doc string) *entities.Report {
	h.t.Helper()
	report, err := h.pipeline.Ingest(entities.OriginDefault, []byte(doc))
	if err != nil {
		h.t.Fatalf("Failed to load report: %v", err)
	}
	return report
}

// ExecuteRequest executes an HTTP handler with given parameters
func ExecuteRequest(handler http.HandlerFunc, method, path string, body io.Reader, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// assertJSONResponse asserts that response contains valid JSON with expected status
func assertJSONResponse(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()
	if resp.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d: %s", expectedStatus, resp.Code, resp.Body.String())
	}

	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// assertErrorResponse asserts the error body and returns its message
func assertErrorResponse(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int) string {
	t.Helper()
	var errorResp map[string]any
	assertJSONResponse(t, resp, expectedStatus, &errorResp)

	if errorResp["error"] != http.StatusText(expectedStatus) {
		t.Errorf("Expected error %q, got %v", http.StatusText(expectedStatus), errorResp["error"])
	}
	if errorResp["code"] != float64(expectedStatus) {
		t.Errorf("Expected code %d, got %v", expectedStatus, errorResp["code"])
	}
	message, ok := errorResp["message"].(string)
	if !ok {
		t.Error("Error response should have message field")
	}
	return message
}

var _ interfaces.HealthChecker = (*MockHealthChecker)(nil)
