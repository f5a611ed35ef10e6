package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/config"
	"github.com/kashacker/satellite-tracker-orbitx/internal/orbit"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

// upstream serves a one-satellite group and per-satellite GP queries.
func upstream(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/group/stations", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, "%s\r\n%s\r\n%s\r\n", issName, issLine1, issLine2)
	})
	mux.HandleFunc("/gp", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("CATNR") != "25544" {
			fmt.Fprint(w, "No GP data found")
			return
		}
		fmt.Fprintf(w, "%s\n%s\n%s\n", issName, issLine1, issLine2)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, base string) config.Config {
	cfg := config.Default()
	cfg.Elements.URLTemplate = base + "/gp?CATNR=%d"
	cfg.Elements.Persistence.Backend = config.BackendLevelDB
	cfg.Elements.Persistence.LevelDBPath = filepath.Join(t.TempDir(), "elements")
	cfg.Catalog.Sources = []catalog.Source{{Category: "Space Stations", URL: base + "/group/stations"}}
	cfg.Catalog.SnapshotDir = filepath.Join(t.TempDir(), "catalog")
	return cfg
}

func TestNewEndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := upstream(t, &hits)
	now := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

	a, err := New(context.Background(), testConfig(t, srv.URL), testLogger, WithClock(cache.NewManualClock(now)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Ready() {
		t.Error("ready before the catalog was loaded")
	}

	ctx := context.Background()
	list := a.Service.ListSatellites(ctx)
	if len(list) != 1 || list[0].Category != "Space Stations" {
		t.Fatalf("catalog = %+v", list)
	}
	if !a.Ready() {
		t.Error("not ready after the catalog was loaded")
	}

	set, pos, err := a.Service.ResolvePosition(ctx, 25544, orbit.Observer{LatitudeDeg: 51.48})
	if err != nil {
		t.Fatalf("ResolvePosition: %v", err)
	}
	if set.Name != issName || pos.EpochUnixSeconds != now.Unix() {
		t.Errorf("set %q, timestamp %d", set.Name, pos.EpochUnixSeconds)
	}

	h := a.Service.Health()
	if h.CatalogSize != 1 || h.CachedElementSets != 1 {
		t.Errorf("health = %+v", h)
	}
}

func TestNewWarmsFromSnapshotAndPersistence(t *testing.T) {
	var hits atomic.Int32
	srv := upstream(t, &hits)
	cfg := testConfig(t, srv.URL)
	clock := cache.NewManualClock(time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := New(ctx, cfg, testLogger, WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	first.Service.ListSatellites(ctx)
	if _, err := first.Service.ElementSet(ctx, 25544); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	before := hits.Load()

	second, err := New(ctx, cfg, testLogger, WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if !second.Ready() {
		t.Error("restart did not warm the catalog from disk")
	}
	if _, err := second.Service.ElementSet(ctx, 25544); err != nil {
		t.Fatal(err)
	}
	second.Service.ListSatellites(ctx)
	if got := hits.Load(); got != before {
		t.Errorf("restart hit upstream %d more times", got-before)
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Elements.Persistence.Backend = config.BackendRedis
	cfg.Elements.Persistence.RedisAddr = "127.0.0.1:1"
	if _, err := New(context.Background(), cfg, testLogger); err == nil {
		t.Error("expected error for unreachable redis")
	}
}

func TestKeepWarmStopsWithContext(t *testing.T) {
	var hits atomic.Int32
	srv := upstream(t, &hits)
	cfg := testConfig(t, srv.URL)
	cfg.Elements.Persistence.Backend = config.BackendNone

	a, err := New(context.Background(), cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.KeepWarm(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !a.Ready() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !a.Ready() {
		t.Fatal("KeepWarm did not load the catalog")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("KeepWarm did not return after cancel")
	}
}
