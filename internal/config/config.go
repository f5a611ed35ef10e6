// Package config loads server settings: built-in defaults, then an optional
// YAML file, then ORBITX_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/elements"
	"github.com/kashacker/satellite-tracker-orbitx/internal/observability"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// Persistence backends for the element-set store.
const (
	BackendNone    = ""
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"
)

// Duration is a time.Duration written as a Go duration string ("6h", "90s")
// in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Server struct {
	Addr string `yaml:"addr"`
	// APIPrefix is the path prefix every API route is mounted under.
	APIPrefix  string `yaml:"apiPrefix"`
	TrustProxy bool   `yaml:"trustProxy"`
	// MaxInFlightPerIP caps concurrent API requests per client; 0 disables.
	MaxInFlightPerIP int `yaml:"maxInFlightPerIP"`
}

type Auth struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type Persistence struct {
	Backend     string   `yaml:"backend"` // "", leveldb, redis
	LevelDBPath string   `yaml:"leveldbPath"`
	RedisAddr   string   `yaml:"redisAddr"`
	RedisDB     int      `yaml:"redisDB"`
	RedisPrefix string   `yaml:"redisPrefix"`
	RedisTTL    Duration `yaml:"redisTTL"`
}

type Elements struct {
	TTL          Duration    `yaml:"ttl"`
	URLTemplate  string      `yaml:"urlTemplate"`
	FetchTimeout Duration    `yaml:"fetchTimeout"`
	Persistence  Persistence `yaml:"persistence"`
}

type Catalog struct {
	TTL              Duration         `yaml:"ttl"`
	SourceTimeout    Duration         `yaml:"sourceTimeout"`
	FetchWorkers     int              `yaml:"fetchWorkers"` // 0 fetches every source at once
	Preload          bool             `yaml:"preload"`
	SnapshotDir      string           `yaml:"snapshotDir"`
	SnapshotMaxFiles int              `yaml:"snapshotMaxFiles"`
	Sources          []catalog.Source `yaml:"sources"`
}

// Config is the complete server configuration.
type Config struct {
	Server   Server                      `yaml:"server"`
	Auth     Auth                        `yaml:"auth"`
	Log      observability.LogConfig     `yaml:"log"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
	Elements Elements                    `yaml:"elements"`
	Catalog  Catalog                     `yaml:"catalog"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:             ":3001",
			APIPrefix:        "/api",
			MaxInFlightPerIP: 16,
		},
		Log:     observability.LogConfig{Level: "info", Format: "json"},
		Tracing: observability.DefaultTracingConfig(),
		Elements: Elements{
			TTL:          Duration(elements.DefaultTTL),
			URLTemplate:  tle.DefaultElementURL,
			FetchTimeout: Duration(10 * time.Second),
			Persistence: Persistence{
				LevelDBPath: "/tmp/orbitx/elements",
				RedisAddr:   "localhost:6379",
				RedisPrefix: "orbitx:tle:",
				RedisTTL:    Duration(elements.DefaultTTL),
			},
		},
		Catalog: Catalog{
			TTL:              Duration(catalog.DefaultTTL),
			SourceTimeout:    Duration(15 * time.Second),
			FetchWorkers:     0,
			Preload:          true,
			SnapshotDir:      "/tmp/orbitx/catalog",
			SnapshotMaxFiles: 5,
			Sources:          catalog.DefaultSources(),
		},
	}
}

// Warner receives non-fatal configuration problems. *slog.Logger satisfies it.
type Warner interface {
	Warn(msg string, args ...any)
}

// Load builds the configuration. path may be empty. Invalid environment
// values are reported to w and ignored; an unreadable file or a config that
// fails Validate is an error.
func Load(path string, w Warner) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg, w)

	cfg.Server.APIPrefix = "/" + strings.Trim(cfg.Server.APIPrefix, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first setting the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxInFlightPerIP < 0 {
		return errors.New("server.maxInFlightPerIP must not be negative")
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("auth.token is required when auth is enabled")
	}
	if c.Elements.TTL <= 0 {
		return errors.New("elements.ttl must be positive")
	}
	if c.Elements.FetchTimeout <= 0 {
		return errors.New("elements.fetchTimeout must be positive")
	}
	if strings.Count(c.Elements.URLTemplate, "%d") != 1 {
		return fmt.Errorf("elements.urlTemplate must contain exactly one %%d, got %q", c.Elements.URLTemplate)
	}
	switch c.Elements.Persistence.Backend {
	case BackendNone:
	case BackendLevelDB:
		if c.Elements.Persistence.LevelDBPath == "" {
			return errors.New("elements.persistence.leveldbPath is required for the leveldb backend")
		}
	case BackendRedis:
		if c.Elements.Persistence.RedisAddr == "" {
			return errors.New("elements.persistence.redisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown elements.persistence.backend %q (want leveldb or redis)", c.Elements.Persistence.Backend)
	}
	if c.Catalog.TTL <= 0 {
		return errors.New("catalog.ttl must be positive")
	}
	if c.Catalog.SourceTimeout <= 0 {
		return errors.New("catalog.sourceTimeout must be positive")
	}
	if c.Catalog.FetchWorkers < 0 {
		return errors.New("catalog.fetchWorkers must not be negative")
	}
	if len(c.Catalog.Sources) == 0 {
		return errors.New("catalog.sources must not be empty")
	}
	seen := make(map[string]bool, len(c.Catalog.Sources))
	for i, s := range c.Catalog.Sources {
		if s.Category == "" || s.URL == "" {
			return fmt.Errorf("catalog.sources[%d]: category and url are required", i)
		}
		if seen[s.Category] {
			return fmt.Errorf("catalog.sources[%d]: duplicate category %q", i, s.Category)
		}
		seen[s.Category] = true
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sampleRatio %v outside [0, 1]", c.Tracing.SampleRatio)
	}
	return nil
}
