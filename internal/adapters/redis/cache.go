// Package redisad backs the catalog cache with Redis. Values are JSON; every
// key carries a TTL. The adapter never surfaces store failures: an unreachable
// server turns the cache into a permanent miss (read-through becomes bypass).
package redisad

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/domain"
)

type Cache struct {
	c        *redis.Client
	disabled atomic.Bool
	hits     atomic.Int64
	misses   atomic.Int64
}

func New(addr, pass string, db int) *Cache {
	r := &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.c.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("cache store unreachable, serving without cache")
		r.disabled.Store(true)
	}
	return r
}

// Disabled reports whether the adapter is in bypass mode.
func (r *Cache) Disabled() bool { return r.disabled.Load() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if r.disabled.Load() {
		observability.ObserveCache("redis", "bypass")
		return false, nil
	}
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		r.misses.Add(1)
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		// store trouble is invisible above this boundary
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		r.misses.Add(1)
		return false, nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache value undecodable, dropping")
		_ = r.c.Del(ctx, key).Err()
		r.misses.Add(1)
		return false, nil
	}
	r.hits.Add(1)
	observability.ObserveCache("redis", "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if r.disabled.Load() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache set: marshal failed")
		return nil
	}
	observability.ObserveCache("redis", "set")
	if err := r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return nil
}

func (r *Cache) Del(ctx context.Context, key string) error {
	if r.disabled.Load() {
		return nil
	}
	observability.ObserveCache("redis", "del")
	if err := r.c.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache del failed")
	}
	return nil
}

// Scan returns the keys matching a glob pattern, e.g. "hotels:filtered:*".
func (r *Cache) Scan(ctx context.Context, pattern string) ([]string, error) {
	if r.disabled.Load() {
		return nil, nil
	}
	var keys []string
	it := r.c.Scan(ctx, 0, pattern, 0).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}
	if err := it.Err(); err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
		return keys, nil
	}
	return keys, nil
}

func (r *Cache) FlushAll(ctx context.Context) error {
	if r.disabled.Load() {
		return nil
	}
	if err := r.c.FlushAll(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("cache flush failed")
	}
	return nil
}

func (r *Cache) Stats(ctx context.Context) (domain.CacheStats, error) {
	st := domain.CacheStats{Hits: r.hits.Load(), Misses: r.misses.Load()}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	if !r.disabled.Load() {
		if n, err := r.c.DBSize(ctx).Result(); err == nil {
			st.Keys = n
		}
	}
	return st, nil
}
