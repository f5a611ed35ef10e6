package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/health", "/api/health"},
		{"/api/satellites", "/api/satellites"},
		{"/api/satellites/search", "/api/satellites/search"},

		// Parameterized routes collapse to one label.
		{"/api/position/25544/51.5/-0.12/10", "/api/position/{catnr}/{lat}/{lng}/{alt}"},
		{"/api/position/44713/0/0/0", "/api/position/{catnr}/{lat}/{lng}/{alt}"},
		{"/api/tle/25544", "/api/tle/{catnr}"},
		{"/api/tle/abc", "/api/tle/{catnr}"},
		{"/api/satellites/category/Starlink", "/api/satellites/category/{category}"},
		{"/api/satellites/category/Space%20Stations", "/api/satellites/category/{category}"},

		// Unknown/bot paths collapse to "other".
		{"/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/api/position/25544", "other"},
		{"/health", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute("/api", tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeRouteEmptyPrefix(t *testing.T) {
	if got := normalizeRoute("", "/tle/25544"); got != "/tle/{catnr}" {
		t.Errorf("got %q", got)
	}
	if got := normalizeRoute("", "/api/tle/25544"); got != "other" {
		t.Errorf("got %q", got)
	}
}

// TestMetricsCardinality verifies that 100 unique catalog numbers produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 1; i <= 100; i++ {
		label := normalizeRoute("/api", "/api/position/"+strconv.Itoa(i)+"/0/0/0")
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	handler := Middleware("/api/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := httpRequestsTotal.WithLabelValues("/api/tle/{catnr}", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tle/"+strconv.Itoa(25540+i), nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("counter delta = %v, want 3", got)
	}
}

func TestHelpers(t *testing.T) {
	before := testutil.ToFloat64(catalogSourceFailuresTotal.WithLabelValues("Starlink"))
	IncCatalogSourceFailure("Starlink")
	if got := testutil.ToFloat64(catalogSourceFailuresTotal.WithLabelValues("Starlink")) - before; got != 1 {
		t.Errorf("source failure delta = %v, want 1", got)
	}

	SetCatalogSize(42)
	if got := testutil.ToFloat64(catalogSize); got != 42 {
		t.Errorf("catalog size = %v, want 42", got)
	}
}

func TestObserveCatalogRefreshDuration(t *testing.T) {
	sampleCount := func() uint64 {
		var m dto.Metric
		if err := catalogRefreshDuration.Write(&m); err != nil {
			t.Fatalf("Write: %v", err)
		}
		return m.GetHistogram().GetSampleCount()
	}

	before := sampleCount()
	ObserveCatalogRefreshDuration(1500 * time.Millisecond)
	if got := sampleCount() - before; got != 1 {
		t.Errorf("sample count delta = %d, want 1", got)
	}
}
