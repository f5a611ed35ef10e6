package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func applyEnv(cfg *Config, w Warner) {
	envString("ORBITX_HTTP_ADDR", &cfg.Server.Addr)
	envString("ORBITX_API_PREFIX", &cfg.Server.APIPrefix)
	envBool(w, "ORBITX_TRUST_PROXY", &cfg.Server.TrustProxy)
	envInt(w, "ORBITX_MAX_INFLIGHT_PER_IP", &cfg.Server.MaxInFlightPerIP, 0)

	envBool(w, "ORBITX_AUTH_ENABLED", &cfg.Auth.Enabled)
	envString("ORBITX_AUTH_TOKEN", &cfg.Auth.Token)

	envString("ORBITX_LOG_LEVEL", &cfg.Log.Level)
	envString("ORBITX_LOG_FORMAT", &cfg.Log.Format)

	envBool(w, "ORBITX_TRACING_ENABLED", &cfg.Tracing.Enabled)
	envString("ORBITX_TRACING_EXPORTER", &cfg.Tracing.Exporter)
	envString("ORBITX_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	envString("ORBITX_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	if v := os.Getenv("ORBITX_TRACING_SAMPLE_RATIO"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 || r > 1 {
			w.Warn("invalid ORBITX_TRACING_SAMPLE_RATIO value, keeping current", "value", v, "current", cfg.Tracing.SampleRatio)
		} else {
			cfg.Tracing.SampleRatio = r
		}
	}

	envDuration(w, "ORBITX_ELEMENT_TTL", &cfg.Elements.TTL)
	envString("ORBITX_ELEMENT_URL_TEMPLATE", &cfg.Elements.URLTemplate)
	envDuration(w, "ORBITX_ELEMENT_FETCH_TIMEOUT", &cfg.Elements.FetchTimeout)
	envString("ORBITX_PERSIST_BACKEND", &cfg.Elements.Persistence.Backend)
	envString("ORBITX_LEVELDB_PATH", &cfg.Elements.Persistence.LevelDBPath)
	envString("ORBITX_REDIS_ADDR", &cfg.Elements.Persistence.RedisAddr)
	envInt(w, "ORBITX_REDIS_DB", &cfg.Elements.Persistence.RedisDB, 0)

	envDuration(w, "ORBITX_CATALOG_TTL", &cfg.Catalog.TTL)
	envDuration(w, "ORBITX_CATALOG_SOURCE_TIMEOUT", &cfg.Catalog.SourceTimeout)
	envInt(w, "ORBITX_CATALOG_FETCH_WORKERS", &cfg.Catalog.FetchWorkers, 0)
	envBool(w, "ORBITX_CATALOG_PRELOAD", &cfg.Catalog.Preload)
	envString("ORBITX_CATALOG_SNAPSHOT_DIR", &cfg.Catalog.SnapshotDir)
	envInt(w, "ORBITX_CATALOG_SNAPSHOT_MAX_FILES", &cfg.Catalog.SnapshotMaxFiles, 1)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envBool(w Warner, key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		w.Warn("invalid boolean env value, keeping current", "key", key, "value", v, "current", *dst)
		return
	}
	*dst = b
}

func envInt(w Warner, key string, dst *int, min int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		w.Warn("invalid integer env value, keeping current", "key", key, "value", v, "current", *dst, "min", min)
		return
	}
	*dst = n
}

// envDuration accepts a Go duration ("6h") or a bare number of seconds.
func envDuration(w Warner, key string, dst *Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		secs, aerr := strconv.Atoi(v)
		if aerr != nil {
			w.Warn("invalid duration env value, keeping current", "key", key, "value", v, "current", time.Duration(*dst).String())
			return
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 {
		w.Warn("non-positive duration env value, keeping current", "key", key, "value", v, "current", time.Duration(*dst).String())
		return
	}
	*dst = Duration(d)
}
