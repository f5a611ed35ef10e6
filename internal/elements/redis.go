package elements

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// RedisPersister shares element sets between replicas. Keys expire after the
// store TTL, so Redis never holds an entry the store would reject as stale.
type RedisPersister struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string, db int, prefix string, ttl time.Duration) (*RedisPersister, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if prefix == "" {
		prefix = "orbitx:tle:"
	}
	return &RedisPersister{client: client, prefix: prefix, ttl: ttl}, nil
}

func (p *RedisPersister) Name() string { return "redis" }

func (p *RedisPersister) Load(ctx context.Context, catalogNumber int) (cache.Entry[tle.ElementSet], bool, error) {
	b, err := p.client.Get(ctx, p.key(catalogNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cache.Entry[tle.ElementSet]{}, false, nil
	}
	if err != nil {
		return cache.Entry[tle.ElementSet]{}, false, err
	}
	e, err := decodeEntry(b)
	if err != nil {
		return cache.Entry[tle.ElementSet]{}, false, err
	}
	return e, true, nil
}

func (p *RedisPersister) Save(ctx context.Context, catalogNumber int, e cache.Entry[tle.ElementSet]) error {
	b, err := encodeEntry(e)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.key(catalogNumber), b, p.ttl).Err()
}

func (p *RedisPersister) Close() error {
	return p.client.Close()
}

func (p *RedisPersister) key(catalogNumber int) string {
	return p.prefix + strconv.Itoa(catalogNumber)
}
