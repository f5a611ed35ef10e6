// Package catalog merges several upstream group listings into one satellite
// catalog and answers list, search and category queries against it.
//
// All sources are fetched concurrently; the merge runs afterwards in
// configuration order, so the first source listing a satellite decides its
// category no matter which response arrived first. Readers always see a
// complete snapshot: a refresh builds a new one and swaps the pointer.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/metrics"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// DefaultTTL is how long a merged snapshot is served before the next refresh.
const DefaultTTL = 24 * time.Hour

// ErrEmptyRefresh is returned by Refresh when no source produced any entry.
var ErrEmptyRefresh = errors.New("no catalog source returned entries")

// Fetcher downloads one group listing. *tle.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config holds aggregator settings.
type Config struct {
	Sources       []Source
	TTL           time.Duration // default: 24h
	FetchWorkers  int           // concurrent source fetches (default: all sources at once)
	SourceTimeout time.Duration // per-source bound (default: 15s)
}

// Aggregator owns the merged catalog snapshot.
// Safe for concurrent use by multiple goroutines.
type Aggregator struct {
	fetcher Fetcher
	config  Config
	clock   cache.Clock
	logger  *slog.Logger
	disk    *SnapshotCache

	snapshot atomic.Pointer[cache.Entry[[]Entry]]
	group    singleflight.Group
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces the wall clock used for freshness decisions.
func WithClock(c cache.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithSnapshotCache persists every successful merge to disk.
func WithSnapshotCache(sc *SnapshotCache) Option {
	return func(a *Aggregator) { a.disk = sc }
}

// NewAggregator creates an Aggregator. The catalog is fetched lazily on the
// first query, or eagerly via Refresh or Warm.
func NewAggregator(fetcher Fetcher, config Config, logger *slog.Logger, opts ...Option) *Aggregator {
	if len(config.Sources) == 0 {
		config.Sources = DefaultSources()
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.FetchWorkers <= 0 {
		config.FetchWorkers = len(config.Sources)
	}
	if config.SourceTimeout <= 0 {
		config.SourceTimeout = 15 * time.Second
	}

	a := &Aggregator{
		fetcher: fetcher,
		config:  config,
		clock:   cache.SystemClock{},
		logger:  logger.With("component", "catalog"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// List returns the merged catalog in merge order, refreshing it first when it
// is empty or older than the TTL.
func (a *Aggregator) List(ctx context.Context) []Entry {
	snap := a.current(ctx)
	if snap == nil {
		return nil
	}
	return snap.Value
}

// Search matches q case-insensitively as a substring of the name, the decimal
// catalog number or the category. Whitespace in q is significant. An empty
// query matches everything.
func (a *Aggregator) Search(ctx context.Context, q string) SearchResult {
	q = strings.ToLower(q)

	var res SearchResult
	for _, e := range a.List(ctx) {
		if !matches(e, q) {
			continue
		}
		res.Total++
		if len(res.Entries) < MaxSearchResults {
			res.Entries = append(res.Entries, e)
		}
	}
	return res
}

// ByCategory returns every entry whose category equals category, ignoring case.
func (a *Aggregator) ByCategory(ctx context.Context, category string) []Entry {
	var out []Entry
	for _, e := range a.List(ctx) {
		if strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the size of the current snapshot without triggering a refresh.
func (a *Aggregator) Len() int {
	snap := a.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Value)
}

// FetchedAt returns when the current snapshot was built, or the zero time.
func (a *Aggregator) FetchedAt() time.Time {
	snap := a.snapshot.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.FetchedAt()
}

// Warm installs the newest on-disk snapshot, keeping its original fetch time
// so a restart does not extend its lifetime. It is a no-op without a
// snapshot cache or when the catalog is already populated.
func (a *Aggregator) Warm() error {
	if a.disk == nil || a.snapshot.Load() != nil {
		return nil
	}
	snap, err := a.disk.LoadLatest()
	if err != nil {
		return err
	}
	if len(snap.Value) == 0 {
		return fmt.Errorf("snapshot from %s is empty", snap.FetchedAt().Format(time.RFC3339))
	}
	a.snapshot.CompareAndSwap(nil, &snap)
	metrics.SetCatalogSize(a.Len())

	a.logger.Info("catalog warmed from disk",
		"entries", len(snap.Value),
		"fetched_at", snap.FetchedAt().Format(time.RFC3339),
		"age", snap.Age(a.clock.Now()).Round(time.Second).String(),
		"stale", snap.Stale(a.clock.Now(), a.config.TTL),
	)
	return nil
}

// Refresh fetches every source and replaces the snapshot. Concurrent calls
// share one refresh. If no source yields an entry the previous snapshot is
// kept unchanged and ErrEmptyRefresh is returned.
func (a *Aggregator) Refresh(ctx context.Context) error {
	_, err, _ := a.group.Do("refresh", func() (any, error) {
		return nil, a.refresh(context.WithoutCancel(ctx))
	})
	return err
}

func (a *Aggregator) current(ctx context.Context) *cache.Entry[[]Entry] {
	snap := a.snapshot.Load()
	if snap != nil && len(snap.Value) > 0 && !snap.Stale(a.clock.Now(), a.config.TTL) {
		return snap
	}
	if err := a.Refresh(ctx); err != nil {
		a.logger.Warn("catalog refresh failed, serving previous snapshot",
			"previous_entries", a.Len(),
			"error", err,
		)
	}
	return a.snapshot.Load()
}

func (a *Aggregator) refresh(ctx context.Context) error {
	start := time.Now()
	sources := a.config.Sources
	results := make([][]Entry, len(sources))

	var g errgroup.Group
	g.SetLimit(a.config.FetchWorkers)
	var failed atomic.Int64
	for i, src := range sources {
		g.Go(func() error {
			entries, err := a.fetchSource(ctx, src)
			if err != nil {
				failed.Add(1)
				metrics.IncCatalogSourceFailure(src.Category)
				a.logger.Warn("catalog source failed",
					"category", src.Category,
					"url", src.URL,
					"error", err,
				)
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	_ = g.Wait()

	merged := Merge(results)
	duration := time.Since(start)
	metrics.ObserveCatalogRefreshDuration(duration)

	if len(merged) == 0 {
		metrics.IncCatalogRefresh("empty")
		return fmt.Errorf("%w (%d of %d sources failed)", ErrEmptyRefresh, failed.Load(), len(sources))
	}

	snap := cache.NewEntry(merged, a.clock.Now())
	a.snapshot.Store(&snap)
	metrics.IncCatalogRefresh("ok")
	metrics.SetCatalogSize(len(merged))

	a.logger.Info("catalog refreshed",
		"entries", len(merged),
		"sources", len(sources),
		"failed_sources", failed.Load(),
		"duration_ms", duration.Milliseconds(),
	)

	if a.disk != nil {
		if err := a.disk.Write(snap); err != nil {
			a.logger.Warn("writing catalog snapshot failed", "error", err)
		}
	}
	return nil
}

func (a *Aggregator) fetchSource(ctx context.Context, src Source) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.SourceTimeout)
	defer cancel()

	body, err := a.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	sets, err := tle.ParseGroup(bytes.NewReader(body), a.logger)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(sets))
	for i, s := range sets {
		entries[i] = Entry{CatalogNumber: s.CatalogNumber, Name: s.Name, Category: src.Category}
	}
	return entries, nil
}

// Merge concatenates per-source results in order, keeping only the first
// entry seen for each catalog number.
func Merge(results [][]Entry) []Entry {
	seen := make(map[int]struct{})
	var merged []Entry
	for _, entries := range results {
		for _, e := range entries {
			if _, dup := seen[e.CatalogNumber]; dup {
				continue
			}
			seen[e.CatalogNumber] = struct{}{}
			merged = append(merged, e)
		}
	}
	return merged
}

func matches(e Entry, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strconv.Itoa(e.CatalogNumber), q) ||
		strings.Contains(strings.ToLower(e.Category), q)
}
