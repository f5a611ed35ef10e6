package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/auth"
	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/health"
	"github.com/kashacker/satellite-tracker-orbitx/internal/metrics"
	"github.com/kashacker/satellite-tracker-orbitx/internal/orbit"
	"github.com/kashacker/satellite-tracker-orbitx/internal/service"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// maxInFlightTotal bounds concurrent API requests across all clients.
const maxInFlightTotal = 1024

// Service is the query surface the handlers need (*service.Service).
type Service interface {
	ResolvePosition(ctx context.Context, catalogNumber int, observer orbit.Observer) (tle.ElementSet, orbit.Position, error)
	ElementSet(ctx context.Context, catalogNumber int) (tle.ElementSet, error)
	ListSatellites(ctx context.Context) []catalog.Entry
	SearchSatellites(ctx context.Context, q string) catalog.SearchResult
	SatellitesByCategory(ctx context.Context, category string) []catalog.Entry
	Health() service.Health
}

// Options configures the HTTP server.
type Options struct {
	Addr string
	// Prefix is the path every API route is mounted under, e.g. "/api".
	Prefix     string
	Auth       auth.Config
	TrustProxy bool
	// MaxInFlightPerIP caps concurrent requests per client; 0 disables.
	MaxInFlightPerIP int
	// Ready gates /readyz; nil means always ready.
	Ready func() bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(opts Options, svc Service, logger *slog.Logger) *Server {
	prefix := "/" + strings.Trim(opts.Prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	logger = logger.With("component", "api")
	h := &handlers{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/position/{catnr}/{lat}/{lng}/{alt}", h.position)
	mux.HandleFunc("GET "+prefix+"/tle/{catnr}", h.elementSet)
	mux.HandleFunc("GET "+prefix+"/satellites", h.satellites)
	mux.HandleFunc("GET "+prefix+"/satellites/search", h.search)
	mux.HandleFunc("GET "+prefix+"/satellites/category/{category}", h.category)
	mux.HandleFunc("GET "+prefix+"/health", h.health)

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(opts.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", notFound)

	authCfg := opts.Auth
	authCfg.PublicPaths = append(authCfg.PublicPaths, prefix+"/health")

	// Build middleware chain: metrics -> tracing -> logging -> cors -> limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = limitMiddleware(opts.MaxInFlightPerIP, maxInFlightTotal, opts.TrustProxy)(handler)
	handler = corsMiddleware(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = tracingMiddleware(handler)
	handler = metrics.Middleware(prefix)(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			// Covers a cold catalog refresh (15s per source) inside a request.
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		handler: handler,
		logger:  logger,
	}
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
