package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLoad(t *testing.T) {
	before := testutil.ToFloat64(ReportLoadsTotal.WithLabelValues("upload", ResultParseError))
	RecordLoad("upload", ResultParseError)
	after := testutil.ToFloat64(ReportLoadsTotal.WithLabelValues("upload", ResultParseError))

	if after != before+1 {
		t.Errorf("Expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestSetRecordCounts(t *testing.T) {
	SetRecordCounts(map[string]int{"major": 2, "moderate": 1, "minimal": 5})
	if got := testutil.ToFloat64(ReportRecords.WithLabelValues("minimal")); got != 5 {
		t.Errorf("Expected 5 minimal records, got %v", got)
	}

	SetRecordCounts(map[string]int{"major": 0})
	if got := testutil.CollectAndCount(ReportRecords); got != 1 {
		t.Errorf("Expected stale severities to be reset, got %d series", got)
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/drugs/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := HTTPRequestTotals.WithLabelValues(http.MethodGet, "/v1/drugs/{name}", "404")
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"codeine", "warfarin"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/drugs/"+name, nil))
	}

	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("Expected both requests under the route pattern, got %v -> %v", before, got)
	}
	if got := testutil.ToFloat64(HTTPRequestInFlight); got != 0 {
		t.Errorf("Expected no in-flight requests, got %v", got)
	}
}

func TestMetricsMiddlewareWithoutRouter(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	counter := HTTPRequestTotals.WithLabelValues(http.MethodGet, "unmatched", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anything", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("Expected unmatched label, got %v -> %v", before, got)
	}
}
