package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitx_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	elementLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_element_lookups_total",
			Help: "Element-set lookups by cache outcome (hit, l2_hit, miss).",
		},
		[]string{"result"},
	)

	elementFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_element_fetches_total",
			Help: "Upstream element-set fetches by result.",
		},
		[]string{"result"},
	)

	elementCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitx_element_cache_size",
			Help: "Number of element sets held in memory.",
		},
	)

	catalogRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_catalog_refreshes_total",
			Help: "Catalog refreshes by result.",
		},
		[]string{"result"},
	)

	catalogRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitx_catalog_refresh_duration_seconds",
			Help:    "Wall time of a full catalog fan-out and merge.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
		},
	)

	catalogSourceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_catalog_source_failures_total",
			Help: "Catalog source fetches that yielded no entries because of an error.",
		},
		[]string{"category"},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitx_catalog_size",
			Help: "Number of unique satellites in the current catalog snapshot.",
		},
	)

	resolveErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_resolve_errors_total",
			Help: "Position resolution failures by error kind.",
		},
		[]string{"kind"},
	)

	persistenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitx_persistence_errors_total",
			Help: "Second-level element cache errors by backend and operation.",
		},
		[]string{"backend", "op"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(elementLookupsTotal)
	prometheus.MustRegister(elementFetchesTotal)
	prometheus.MustRegister(elementCacheSize)
	prometheus.MustRegister(catalogRefreshesTotal)
	prometheus.MustRegister(catalogRefreshDuration)
	prometheus.MustRegister(catalogSourceFailuresTotal)
	prometheus.MustRegister(catalogSize)
	prometheus.MustRegister(resolveErrorsTotal)
	prometheus.MustRegister(persistenceErrorsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncElementLookup(result string)  { elementLookupsTotal.WithLabelValues(result).Inc() }
func IncElementFetch(result string)   { elementFetchesTotal.WithLabelValues(result).Inc() }
func SetElementCacheSize(n int)       { elementCacheSize.Set(float64(n)) }
func IncCatalogRefresh(result string) { catalogRefreshesTotal.WithLabelValues(result).Inc() }
func SetCatalogSize(n int)            { catalogSize.Set(float64(n)) }
func IncResolveError(kind string)     { resolveErrorsTotal.WithLabelValues(kind).Inc() }

func ObserveCatalogRefreshDuration(d time.Duration) {
	catalogRefreshDuration.Observe(d.Seconds())
}

func IncCatalogSourceFailure(category string) {
	catalogSourceFailuresTotal.WithLabelValues(category).Inc()
}

func IncPersistenceError(backend, op string) {
	persistenceErrorsTotal.WithLabelValues(backend, op).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request. Paths are
// collapsed to their route template under prefix so satellite IDs and
// coordinates never become label values.
func Middleware(prefix string) func(http.Handler) http.Handler {
	prefix = strings.TrimRight(prefix, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			code := strconv.Itoa(rw.statusCode)
			route := normalizeRoute(prefix, r.URL.Path)

			httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
			httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
		})
	}
}

// normalizeRoute maps a request path to a bounded set of labels.
// Unknown paths collapse to "other".
func normalizeRoute(prefix, path string) string {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return path
	}

	rest, ok := strings.CutPrefix(path, prefix+"/")
	if !ok {
		return "other"
	}
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && (parts[0] == "health" || parts[0] == "satellites"):
		return prefix + "/" + parts[0]
	case len(parts) == 5 && parts[0] == "position":
		return prefix + "/position/{catnr}/{lat}/{lng}/{alt}"
	case len(parts) == 2 && parts[0] == "tle":
		return prefix + "/tle/{catnr}"
	case len(parts) == 2 && parts[0] == "satellites" && parts[1] == "search":
		return prefix + "/satellites/search"
	case len(parts) == 3 && parts[0] == "satellites" && parts[1] == "category":
		return prefix + "/satellites/category/{category}"
	}
	return "other"
}
