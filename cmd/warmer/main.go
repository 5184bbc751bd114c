package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"island_catalog/internal/adapters/observability"
	redisad "island_catalog/internal/adapters/redis"
	"island_catalog/internal/adapters/tourapi"
	"island_catalog/internal/app"
	"island_catalog/internal/shared"
)

// The warmer front-loads the cache so that the first conversation of the day
// never waits on the upstream: the region tree, every island's excursion
// list, the island counters, the transfer catalog and the first page of each
// island's hotel lists.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.APIBase).
		Int("workers", cfg.Workers).
		Msg("warmer starting")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	api := tourapi.New(cfg.APIBase, cfg.APIKey, cfg.APIRPS)
	catalog := app.New(api, cache, cfg.CDNHost, cfg.PackagesPath, app.TTLPolicy{
		Short:  int(cfg.TTLShort.Seconds()),
		Medium: int(cfg.TTLMedium.Seconds()),
		Long:   int(cfg.TTLLong.Seconds()),
	})

	started := time.Now()

	if _, err := catalog.Locations(ctx); err != nil {
		log.Warn().Err(err).Msg("locations warmup failed")
	}
	catalog.Transfers(ctx, "")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range app.IslandIDs() {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer sem.Release(1)

			n := len(catalog.PrivateExcursionsByIsland(ctx, id))
			code := strings.ToLower(app.IslandName(id))
			page := catalog.ListHotels(ctx, code, 0, 0, 10, "", "")
			log.Info().
				Str("island", code).
				Int("excursions", n).
				Int("hotels", len(page.Items)).
				Msg("island warmed")
		}(id)
	}
	wg.Wait()

	// the aggregate list and counters come last so they land on warm entries
	catalog.IslandsWithCount(ctx)

	log.Info().Dur("took", time.Since(started)).Msg("warmup completed")
}
