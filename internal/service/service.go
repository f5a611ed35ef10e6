// Package service is the query façade the HTTP layer and the CLI call. It
// wires the element store, the catalog aggregator and the orbit resolver.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/metrics"
	"github.com/kashacker/satellite-tracker-orbitx/internal/orbit"
	"github.com/kashacker/satellite-tracker-orbitx/internal/propagation"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// ElementStore is the per-satellite element cache (*elements.Store).
type ElementStore interface {
	Get(ctx context.Context, catalogNumber int) (tle.ElementSet, error)
	Len() int
}

// Catalog is the merged satellite catalog (*catalog.Aggregator).
type Catalog interface {
	List(ctx context.Context) []catalog.Entry
	Search(ctx context.Context, q string) catalog.SearchResult
	ByCategory(ctx context.Context, category string) []catalog.Entry
	Len() int
}

// Health is a point-in-time view of cache population.
type Health struct {
	CatalogSize       int
	CachedElementSets int
}

// Service answers position, element-set and catalog queries.
type Service struct {
	elements ElementStore
	catalog  Catalog
	clock    cache.Clock
	logger   *slog.Logger
}

// New creates a Service. A nil clock uses the wall clock.
func New(elements ElementStore, cat Catalog, clock cache.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Service{
		elements: elements,
		catalog:  cat,
		clock:    clock,
		logger:   logger.With("component", "service"),
	}
}

// ResolvePosition returns the element set used and the satellite position now
// as seen from observer.
func (s *Service) ResolvePosition(ctx context.Context, catalogNumber int, observer orbit.Observer) (tle.ElementSet, orbit.Position, error) {
	return s.ResolvePositionAt(ctx, catalogNumber, observer, s.clock.Now())
}

// ResolvePositionAt is ResolvePosition for an explicit time. Errors keep their
// kind: errors.Is matches the tle and propagation sentinels.
func (s *Service) ResolvePositionAt(ctx context.Context, catalogNumber int, observer orbit.Observer, at time.Time) (tle.ElementSet, orbit.Position, error) {
	set, err := s.elements.Get(ctx, catalogNumber)
	if err != nil {
		metrics.IncResolveError(ErrorKind(err))
		return tle.ElementSet{}, orbit.Position{}, err
	}

	pos, err := orbit.Resolve(set, at, observer)
	if err != nil {
		metrics.IncResolveError(ErrorKind(err))
		s.logger.Warn("position resolution failed",
			"catalog_number", catalogNumber,
			"epoch", set.Epoch.UTC().Format(time.RFC3339),
			"at", at.UTC().Format(time.RFC3339),
			"error", err,
		)
		return set, orbit.Position{}, err
	}
	return set, pos, nil
}

// ElementSet returns the cached or freshly fetched element set.
func (s *Service) ElementSet(ctx context.Context, catalogNumber int) (tle.ElementSet, error) {
	return s.elements.Get(ctx, catalogNumber)
}

func (s *Service) ListSatellites(ctx context.Context) []catalog.Entry {
	return s.catalog.List(ctx)
}

func (s *Service) SearchSatellites(ctx context.Context, q string) catalog.SearchResult {
	return s.catalog.Search(ctx, q)
}

func (s *Service) SatellitesByCategory(ctx context.Context, category string) []catalog.Entry {
	return s.catalog.ByCategory(ctx, category)
}

// Health never triggers a fetch.
func (s *Service) Health() Health {
	return Health{
		CatalogSize:       s.catalog.Len(),
		CachedElementSets: s.elements.Len(),
	}
}

// Error kinds reported to clients and used as metric labels.
const (
	KindUpstreamUnavailable = "upstream_unavailable"
	KindMalformedData       = "malformed_element_data"
	KindValidation          = "validation"
	KindElementDecode       = "element_decode"
	KindPropagation         = "propagation"
	KindInternal            = "internal"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, tle.ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, tle.ErrValidation):
		return KindValidation
	case errors.Is(err, tle.ErrMalformedElementData):
		return KindMalformedData
	case errors.Is(err, propagation.ErrElementDecode):
		return KindElementDecode
	case errors.Is(err, propagation.ErrPropagation):
		return KindPropagation
	default:
		return KindInternal
	}
}
