package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/domain"
)

const preloadTimeout = 60 * time.Second

// Preloader runs anticipatory cache fills in the background. A key is
// scheduled at most once while its fill is in flight, and never when the key
// is already cached. Fills run on a detached context so that finishing a
// request does not cancel the warmup it triggered.
type Preloader struct {
	cache domain.Cache

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func newPreloader(cache domain.Cache) *Preloader {
	return &Preloader{cache: cache, inflight: map[string]struct{}{}}
}

// Schedule starts fill for key unless the key is cached or already being
// filled. fill receives a detached, deadline-bounded context.
func (p *Preloader) Schedule(key string, fill func(ctx context.Context)) {
	lookCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	var discard any
	cached, _ := p.cache.Get(lookCtx, key, &discard)
	cancel()
	if cached {
		return
	}

	p.mu.Lock()
	if _, busy := p.inflight[key]; busy {
		p.mu.Unlock()
		return
	}
	p.inflight[key] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	observability.PreloadInflight.Inc()
	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.inflight, key)
			p.mu.Unlock()
			observability.PreloadInflight.Dec()
			p.wg.Done()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()
		log.Debug().Str("key", key).Msg("preload start")
		fill(ctx)
	}()
}

// Inflight reports how many fills are currently running.
func (p *Preloader) Inflight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// Wait blocks until every scheduled fill has finished or the context ends.
func (p *Preloader) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PreloadHotels warms the page a user is likely to open next: the filtered
// hotel list for the same query one page ahead, rooms and prices included.
// Without stay dates the schedule key is the filtered-list key itself, so a
// warm list short-circuits the whole fill; with dates the per-stay prices
// still need resolving and the fill always runs.
func (c *Catalog) PreloadHotels(location string, stars, nextPage, perPage int, checkIn, checkOut string) {
	if nextPage < 0 || perPage <= 0 {
		return
	}
	key := keyFilteredHotels(location, stars) + priceSuffix(checkIn, checkOut)
	c.pre.Schedule(key, func(ctx context.Context) {
		page := c.ListHotels(ctx, location, stars, nextPage, perPage, checkIn, checkOut)
		log.Debug().Str("location", location).Int("page", nextPage).Int("items", len(page.Items)).Msg("preloaded hotel page")
	})
}

// PreloadIslandExcursions warms one island's private excursion list.
func (c *Catalog) PreloadIslandExcursions(locationID int64) {
	c.pre.Schedule(keyPrivateIsland(locationID), func(ctx context.Context) {
		c.PrivateExcursionsByIsland(ctx, locationID)
	})
}

func priceSuffix(checkIn, checkOut string) string {
	if checkIn == "" || checkOut == "" {
		return ""
	}
	return ":" + checkIn + ":" + checkOut
}
