// Package elements caches per-satellite element sets fetched on demand.
//
// A Store serves an element set from memory while it is younger than the TTL
// and refetches it otherwise. A failed refresh is returned to the caller even
// when an older copy exists; the older copy is left in place and nothing is
// cached for the failure.
package elements

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/metrics"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// DefaultTTL is how long a fetched element set is served without refetching.
const DefaultTTL = 6 * time.Hour

// Source fetches one satellite's element set from upstream.
type Source interface {
	FetchElementSet(ctx context.Context, catalogNumber int) (tle.ElementSet, error)
}

// Store is the per-catalog-number element-set cache.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	source  Source
	persist Persister
	clock   cache.Clock
	ttl     time.Duration
	logger  *slog.Logger

	table *cache.Table[int, tle.ElementSet]
	group singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithPersister adds a second-level cache consulted on memory misses and
// written through on successful fetches.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persist = p }
}

// WithClock replaces the wall clock used for freshness decisions.
func WithClock(c cache.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore creates a Store backed by source. A non-positive ttl uses DefaultTTL.
func NewStore(source Source, ttl time.Duration, logger *slog.Logger, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		source: source,
		clock:  cache.SystemClock{},
		ttl:    ttl,
		logger: logger.With("component", "elements"),
		table:  cache.NewTable[int, tle.ElementSet](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the element set for catalogNumber, fetching it if it is absent
// or stale. Errors wrap tle.ErrUpstreamUnavailable, tle.ErrMalformedElementData
// or tle.ErrValidation.
func (s *Store) Get(ctx context.Context, catalogNumber int) (tle.ElementSet, error) {
	if set, ok := s.fresh(catalogNumber); ok {
		metrics.IncElementLookup("hit")
		return set, nil
	}

	// Concurrent misses for one key share a single upstream call. The shared
	// call must not die with whichever caller happened to start it, and a
	// caller that gives up stops waiting while the fetch completes for the rest.
	ch := s.group.DoChan(strconv.Itoa(catalogNumber), func() (any, error) {
		return s.load(context.WithoutCancel(ctx), catalogNumber)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return tle.ElementSet{}, res.Err
		}
		return res.Val.(tle.ElementSet), nil
	case <-ctx.Done():
		return tle.ElementSet{}, ctx.Err()
	}
}

// Len returns the number of element sets held in memory, fresh or stale.
func (s *Store) Len() int {
	return s.table.Len()
}

func (s *Store) fresh(catalogNumber int) (tle.ElementSet, bool) {
	e, ok := s.table.Get(catalogNumber)
	if !ok || e.Stale(s.clock.Now(), s.ttl) {
		return tle.ElementSet{}, false
	}
	return e.Value, true
}

func (s *Store) load(ctx context.Context, catalogNumber int) (tle.ElementSet, error) {
	// A flight that finished just before this one started may have filled it.
	if set, ok := s.fresh(catalogNumber); ok {
		metrics.IncElementLookup("hit")
		return set, nil
	}

	if set, ok := s.loadPersisted(ctx, catalogNumber); ok {
		metrics.IncElementLookup("l2_hit")
		return set, nil
	}
	metrics.IncElementLookup("miss")

	start := time.Now()
	set, err := s.source.FetchElementSet(ctx, catalogNumber)
	if err == nil {
		err = tle.Validate(set, catalogNumber)
	}
	if err != nil {
		metrics.IncElementFetch(fetchResult(err))
		s.logger.Warn("element set fetch failed",
			"catalog_number", catalogNumber,
			"error", err,
		)
		return tle.ElementSet{}, err
	}
	set.CatalogNumber = catalogNumber

	entry := cache.NewEntry(set, s.clock.Now())
	s.table.Put(catalogNumber, entry)
	metrics.IncElementFetch("ok")
	metrics.SetElementCacheSize(s.table.Len())

	s.logger.Info("element set fetched",
		"catalog_number", catalogNumber,
		"name", set.Name,
		"epoch", set.Epoch.UTC().Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.savePersisted(ctx, catalogNumber, entry)
	return set, nil
}

// loadPersisted promotes a fresh, valid second-level entry into memory.
func (s *Store) loadPersisted(ctx context.Context, catalogNumber int) (tle.ElementSet, bool) {
	if s.persist == nil {
		return tle.ElementSet{}, false
	}

	e, ok, err := s.persist.Load(ctx, catalogNumber)
	if err != nil {
		metrics.IncPersistenceError(s.persist.Name(), "load")
		s.logger.Warn("persisted element set unreadable",
			"backend", s.persist.Name(),
			"catalog_number", catalogNumber,
			"error", err,
		)
		return tle.ElementSet{}, false
	}
	if !ok || e.Stale(s.clock.Now(), s.ttl) {
		return tle.ElementSet{}, false
	}
	if err := tle.Validate(e.Value, catalogNumber); err != nil {
		s.logger.Warn("discarding invalid persisted element set",
			"backend", s.persist.Name(),
			"catalog_number", catalogNumber,
			"error", err,
		)
		return tle.ElementSet{}, false
	}

	s.table.Put(catalogNumber, e)
	metrics.SetElementCacheSize(s.table.Len())
	return e.Value, true
}

func (s *Store) savePersisted(ctx context.Context, catalogNumber int, e cache.Entry[tle.ElementSet]) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(ctx, catalogNumber, e); err != nil {
		metrics.IncPersistenceError(s.persist.Name(), "save")
		s.logger.Warn("persisting element set failed",
			"backend", s.persist.Name(),
			"catalog_number", catalogNumber,
			"error", err,
		)
	}
}

func fetchResult(err error) string {
	switch {
	case errors.Is(err, tle.ErrValidation):
		return "validation"
	case errors.Is(err, tle.ErrMalformedElementData):
		return "malformed"
	case errors.Is(err, tle.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}
