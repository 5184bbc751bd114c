package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
)

const islandFanout = 4

// PrivateExcursionsByIsland returns every excursion on one island that is not
// a scheduled group departure: location-bound private tours plus the daily
// services running there. The two upstream calls are issued in parallel; a
// failed branch degrades to its empty half.
func (c *Catalog) PrivateExcursionsByIsland(ctx context.Context, locationID int64) []domain.ViewModel {
	key := keyPrivateIsland(locationID)
	var cached []domain.ViewModel
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached
	}
	v, _, _ := c.sf.Do(key, func() (any, error) {
		var (
			privRows, dailyRows []map[string]any
			privErr, dailyErr   error
			wg                  sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			privRows, privErr = c.api.PrivateExcursions(ctx, locationID)
		}()
		go func() {
			defer wg.Done()
			dailyRows, dailyErr = c.api.DailyExcursions(ctx)
		}()
		wg.Wait()
		if privErr != nil {
			log.Error().Err(privErr).Int64("location", locationID).Msg("private excursions fetch failed")
		}
		if dailyErr != nil {
			log.Error().Err(dailyErr).Msg("daily excursions fetch failed")
		}

		out := c.privateViews(ctx, privRows, dailyRows, locationID)
		if privErr == nil && dailyErr == nil {
			_ = c.cache.Set(ctx, key, out, c.ttl.Medium)
		}
		return out, nil
	})
	return v.([]domain.ViewModel)
}

// privateViews merges private and daily service rows into private-typed view
// models, deduplicated by service id. Group records bleeding into the private
// catalog are kept, flagged is_group_daily; agents-only records are dropped.
func (c *Catalog) privateViews(ctx context.Context, privRows, dailyRows []map[string]any, locationID int64) []domain.ViewModel {
	seen := map[int64]struct{}{}
	out := []domain.ViewModel{}
	add := func(rows []map[string]any, daily bool) {
		for _, r := range rows {
			s, ok := schema.Service(r)
			if !ok || s.AgentsOnly > 0 {
				continue
			}
			if daily && locationID > 0 && s.Location != 0 && s.Location != locationID {
				continue
			}
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			vm := c.serviceVM(ctx, s, domain.TypePrivate)
			if daily {
				vm.IsDaily = true
			}
			out = append(out, vm)
		}
	}
	add(privRows, false)
	add(dailyRows, true)
	return out
}

// AllPrivateExcursions is the union of private and daily excursions across
// the whitelisted islands, cached under its own key. Several features lean on
// it: island counts, search, and fast excursion detail lookups.
func (c *Catalog) AllPrivateExcursions(ctx context.Context) []domain.ViewModel {
	var cached []domain.ViewModel
	if ok, _ := c.cache.Get(ctx, keyAllPrivate, &cached); ok {
		return cached
	}
	v, _, _ := c.sf.Do(keyAllPrivate, func() (any, error) {
		ids := IslandIDs()

		var (
			mu       sync.Mutex
			perIsle  = map[int64][]map[string]any{}
			failed   bool
			wg       sync.WaitGroup
			sem      = semaphore.NewWeighted(islandFanout)
			daily    []map[string]any
			dailyErr error
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			daily, dailyErr = c.api.DailyExcursions(ctx)
		}()
		for _, id := range ids {
			if err := sem.Acquire(ctx, 1); err != nil {
				failed = true
				break
			}
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				defer sem.Release(1)
				rows, err := c.api.PrivateExcursions(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Error().Err(err).Int64("location", id).Msg("private excursions fetch failed")
					failed = true
					return
				}
				perIsle[id] = rows
			}(id)
		}
		wg.Wait()
		if dailyErr != nil {
			log.Error().Err(dailyErr).Msg("daily excursions fetch failed")
			failed = true
			daily = nil
		}

		seen := map[int64]struct{}{}
		out := []domain.ViewModel{}
		for _, id := range ids {
			for _, vm := range c.privateViews(ctx, perIsle[id], nil, id) {
				if _, dup := seen[vm.ID]; !dup {
					seen[vm.ID] = struct{}{}
					out = append(out, vm)
				}
			}
		}
		for _, vm := range c.privateViews(ctx, nil, daily, 0) {
			if _, dup := seen[vm.ID]; !dup {
				seen[vm.ID] = struct{}{}
				out = append(out, vm)
			}
		}
		if !failed {
			_ = c.cache.Set(ctx, keyAllPrivate, out, c.ttl.Medium)
		}
		return out, nil
	})
	return v.([]domain.ViewModel)
}

// GroupExcursions returns the scheduled group departures for a location and
// day, volatile enough for the short TTL class.
func (c *Catalog) GroupExcursions(ctx context.Context, locationCode string, date time.Time) []domain.ViewModel {
	key := keyGroupExcursions(locationCode, date)
	var cached []domain.ViewModel
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached
	}
	v, _, _ := c.sf.Do(key, func() (any, error) {
		rows, err := c.api.GroupCalendar(ctx, locationCode, date)
		if err != nil {
			log.Error().Err(err).Str("location", locationCode).Msg("group calendar fetch failed")
			return []domain.ViewModel{}, nil
		}
		out := []domain.ViewModel{}
		for _, r := range rows {
			e, ok := schema.Event(r)
			if !ok {
				continue
			}
			if e.Service != nil && e.Service.AgentsOnly > 0 {
				continue
			}
			out = append(out, c.groupEventVM(ctx, e))
		}
		_ = c.cache.Set(ctx, key, out, c.ttl.Short)
		return out, nil
	})
	return v.([]domain.ViewModel)
}

// ExcursionByID returns one excursion's view model. The all-private cache is
// consulted first, so a recent island enumeration makes detail lookups free.
func (c *Catalog) ExcursionByID(ctx context.Context, id int64) (domain.ViewModel, error) {
	key := keyExcursion(id)
	var cached domain.ViewModel
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	var all []domain.ViewModel
	if ok, _ := c.cache.Get(ctx, keyAllPrivate, &all); ok {
		for _, vm := range all {
			if vm.ID == id {
				_ = c.cache.Set(ctx, key, vm, c.ttl.Medium)
				return vm, nil
			}
		}
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		rows, _, err := c.api.Services(ctx, "", id, 1, 0)
		if err != nil {
			return domain.ViewModel{}, err
		}
		for _, r := range rows {
			s, ok := schema.Service(r)
			if !ok || s.ID != id || s.AgentsOnly > 0 {
				continue
			}
			vm := c.serviceVM(ctx, s, domain.TypePrivate)
			_ = c.cache.Set(ctx, key, vm, c.ttl.Medium)
			return vm, nil
		}
		return domain.ViewModel{}, domain.ErrNotFound
	})
	if err != nil {
		if err != domain.ErrNotFound {
			log.Error().Err(err).Int64("id", id).Msg("excursion detail fetch failed")
		}
		return domain.ViewModel{}, domain.ErrNotFound
	}
	return v.(domain.ViewModel), nil
}

// IslandsWithCount enumerates the whitelisted islands with their excursion
// counts, most active first. Populating the all-private cache is a deliberate
// byproduct.
func (c *Catalog) IslandsWithCount(ctx context.Context) []domain.IslandCount {
	var cached []domain.IslandCount
	if ok, _ := c.cache.Get(ctx, keyIslands, &cached); ok {
		return cached
	}

	counts := map[int64]int{}
	for _, vm := range c.AllPrivateExcursions(ctx) {
		id := IslandID(vm.LocationCode)
		if id == 0 {
			continue // not whitelisted
		}
		counts[id]++
	}
	out := make([]domain.IslandCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.IslandCount{LocationID: id, Name: islandNames[id], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 0 {
		_ = c.cache.Set(ctx, keyIslands, out, c.ttl.Medium)
	}
	return out
}
