// Package app assembles the query service from configuration. Both the
// server and the operator CLI build their object graph here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/config"
	"github.com/kashacker/satellite-tracker-orbitx/internal/elements"
	"github.com/kashacker/satellite-tracker-orbitx/internal/metrics"
	"github.com/kashacker/satellite-tracker-orbitx/internal/service"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// App owns the long-lived components and their resources.
type App struct {
	Service  *service.Service
	Catalog  *catalog.Aggregator
	Elements *elements.Store

	persister elements.Persister
	logger    *slog.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	clock cache.Clock
}

// WithClock replaces the wall clock for freshness decisions and for "now" in
// position queries.
func WithClock(c cache.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New wires fetchers, caches and the service from cfg. The caller must Close
// the returned App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{clock: cache.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	persister, err := openPersister(ctx, cfg.Elements, logger)
	if err != nil {
		return nil, err
	}

	client := tle.NewClient(tle.NewFetcher(cfg.Elements.FetchTimeout.Std(), logger), cfg.Elements.URLTemplate)
	storeOpts := []elements.Option{elements.WithClock(o.clock)}
	if persister != nil {
		storeOpts = append(storeOpts, elements.WithPersister(persister))
		logger.Info("element persistence enabled", "component", "app", "backend", persister.Name())
	}
	store := elements.NewStore(client, cfg.Elements.TTL.Std(), logger, storeOpts...)

	aggOpts := []catalog.Option{catalog.WithClock(o.clock)}
	if cfg.Catalog.SnapshotDir != "" {
		aggOpts = append(aggOpts, catalog.WithSnapshotCache(
			catalog.NewSnapshotCache(cfg.Catalog.SnapshotDir, cfg.Catalog.SnapshotMaxFiles)))
	}
	agg := catalog.NewAggregator(
		tle.NewFetcher(cfg.Catalog.SourceTimeout.Std(), logger),
		catalog.Config{
			Sources:       cfg.Catalog.Sources,
			TTL:           cfg.Catalog.TTL.Std(),
			FetchWorkers:  cfg.Catalog.FetchWorkers,
			SourceTimeout: cfg.Catalog.SourceTimeout.Std(),
		},
		logger,
		aggOpts...,
	)
	if err := agg.Warm(); err != nil {
		logger.Info("no usable catalog snapshot on disk", "component", "app", "error", err)
	}

	return &App{
		Service:   service.New(store, agg, o.clock, logger),
		Catalog:   agg,
		Elements:  store,
		persister: persister,
		logger:    logger.With("component", "app"),
	}, nil
}

func openPersister(ctx context.Context, cfg config.Elements, logger *slog.Logger) (elements.Persister, error) {
	p := cfg.Persistence
	switch p.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendLevelDB:
		db, err := elements.OpenLevelDB(p.LevelDBPath)
		if err != nil {
			return nil, fmt.Errorf("open leveldb element cache: %w", err)
		}
		n, err := db.Len()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("scan leveldb element cache: %w", err)
		}
		logger.Info("leveldb element cache opened", "component", "app", "path", p.LevelDBPath, "stored", n)
		return db, nil
	case config.BackendRedis:
		ttl := p.RedisTTL.Std()
		if ttl <= 0 {
			ttl = cfg.TTL.Std()
		}
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rp, err := elements.DialRedis(dialCtx, p.RedisAddr, p.RedisDB, p.RedisPrefix, ttl)
		if err != nil {
			return nil, fmt.Errorf("connect redis element cache: %w", err)
		}
		return rp, nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", p.Backend)
	}
}

// Logger returns the logger the app was built with.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Ready reports whether the catalog holds at least one entry.
func (a *App) Ready() bool {
	return a.Catalog.Len() > 0
}

// KeepWarm loads the catalog now and then once per interval until ctx ends,
// so requests rarely pay for a refresh. A refresh only happens when the
// snapshot is empty or past its TTL.
func (a *App) KeepWarm(ctx context.Context, interval time.Duration) {
	a.warm(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.warm(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) warm(ctx context.Context) {
	n := len(a.Catalog.List(ctx))
	metrics.SetElementCacheSize(a.Elements.Len())
	a.logger.Debug("catalog checked", "entries", n, "fetched_at", a.Catalog.FetchedAt().Format(time.RFC3339))
}

// Close releases the persistence backend, if any.
func (a *App) Close() error {
	if a.persister == nil {
		return nil
	}
	if err := a.persister.Close(); err != nil {
		return fmt.Errorf("close %s: %w", a.persister.Name(), err)
	}
	return nil
}
