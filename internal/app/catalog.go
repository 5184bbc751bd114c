// Package app implements the catalog aggregation layer: cache-first fetchers
// over the upstream tour API, price resolution, background preloading and the
// query facade consumed by the conversational front-end.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
	"island_catalog/internal/search"
)

// TTLPolicy holds the cache TTL classes in seconds. The defaults are part of
// the layer's contract: 1 h for volatile data (prices, group events,
// companions), 2 h for catalogs and filtered lists, 24 h for locations.
type TTLPolicy struct {
	Short  int
	Medium int
	Long   int
}

func DefaultTTL() TTLPolicy { return TTLPolicy{Short: 3600, Medium: 7200, Long: 86400} }

// Catalog is the public query surface. Every method is idempotent, safe for
// concurrent use, and cache-first with single-flight fetch coalescing.
type Catalog struct {
	api   domain.TourClient
	cache domain.Cache
	cdn   string
	ttl   TTLPolicy
	sf    singleflight.Group
	pre   *Preloader

	locMu sync.RWMutex
	locs  map[int64]domain.Location

	pkgPath string
	pkgOnce sync.Once
	pkgs    []domain.Package
}

func New(api domain.TourClient, cache domain.Cache, cdnHost, packagesPath string, ttl TTLPolicy) *Catalog {
	c := &Catalog{
		api:     api,
		cache:   cache,
		cdn:     cdnHost,
		ttl:     ttl,
		locs:    map[int64]domain.Location{},
		pkgPath: packagesPath,
	}
	c.pre = newPreloader(cache)
	return c
}

// Preloader exposes the background warmer, mainly so hosts can await
// quiescence on shutdown.
func (c *Catalog) Preloader() *Preloader { return c.pre }

/********** cache keyspace **********/

const (
	keyLocations  = "locations:all"
	keyAllPrivate = "all_private_excursions"
	keyIslands    = "islands_with_count"
)

func keyFilteredHotels(loc string, stars int) string {
	return fmt.Sprintf("hotels:filtered:%s:%d", loc, stars)
}
func keyHotelRooms(hotelID int64) string { return fmt.Sprintf("hotel:rooms:%d", hotelID) }
func keyRoomPrice(roomID int64, checkIn, checkOut string) string {
	if checkIn == "" || checkOut == "" {
		return fmt.Sprintf("room:price:%d", roomID)
	}
	return fmt.Sprintf("room:price:%d:%s:%s", roomID, checkIn, checkOut)
}
func keyTransfers(island string) string {
	if island == "" {
		return "transfers:all"
	}
	return "transfers:" + island
}
func keyCompanions(island string, year int, month time.Month) string {
	return fmt.Sprintf("companions:%s:%04d-%02d", island, year, int(month))
}
func keyPrivateIsland(locationID int64) string {
	return fmt.Sprintf("private_excursions_island_%d", locationID)
}
func keyExcursion(id int64) string { return fmt.Sprintf("excursion:%d", id) }
func keyGroupExcursions(code string, date time.Time) string {
	return fmt.Sprintf("group_excursions:%s:%s", code, date.Format(dateLayout))
}

/********** islands **********/

// islandNames is the consumer-facing whitelist of excursion locations.
var islandNames = map[int64]string{
	7:  "Manila",
	8:  "Boracay",
	9:  "Cebu",
	10: "Bohol",
	11: "Palawan",
	13: "Coron",
	14: "Mindanao",
	15: "Negros",
	16: "Mindoro",
	18: "Villas",
	37: "Moalboal",
	38: "Malapascua",
	39: "Bantayan",
}

// IslandName resolves a whitelisted location id to its display name.
func IslandName(id int64) string { return islandNames[id] }

// IslandIDs lists the whitelisted location ids in ascending order.
func IslandIDs() []int64 {
	out := make([]int64, 0, len(islandNames))
	for id := range islandNames {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func islandCode(id int64) string { return strings.ToLower(islandNames[id]) }

// IslandID resolves a lowercase island code back to its location id, 0 when
// the code is not whitelisted.
func IslandID(code string) int64 {
	code = strings.ToLower(code)
	for id, name := range islandNames {
		if strings.ToLower(name) == code {
			return id
		}
	}
	return 0
}

/********** locations **********/

// Locations returns the region list, cached for the long TTL class.
func (c *Catalog) Locations(ctx context.Context) ([]domain.Location, error) {
	var cached []domain.Location
	if ok, _ := c.cache.Get(ctx, keyLocations, &cached); ok {
		c.indexLocations(cached)
		return cached, nil
	}
	v, err, _ := c.sf.Do(keyLocations, func() (any, error) {
		rows, err := c.api.Locations(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Location, 0, len(rows))
		for _, r := range rows {
			if l, ok := schema.Location(r); ok {
				out = append(out, l)
			}
		}
		_ = c.cache.Set(ctx, keyLocations, out, c.ttl.Long)
		return out, nil
	})
	if err != nil {
		log.Error().Err(err).Msg("locations fetch failed")
		return nil, nil
	}
	locs := v.([]domain.Location)
	c.indexLocations(locs)
	return locs, nil
}

func (c *Catalog) indexLocations(ls []domain.Location) {
	c.locMu.Lock()
	for _, l := range ls {
		c.locs[l.ID] = l
	}
	c.locMu.Unlock()
}

// locationLabel resolves a location id to (code, display name). The island
// whitelist answers without I/O; anything else goes through the cached
// region list.
func (c *Catalog) locationLabel(ctx context.Context, id int64) (string, string) {
	if name, ok := islandNames[id]; ok {
		return strings.ToLower(name), name
	}
	c.locMu.RLock()
	l, ok := c.locs[id]
	c.locMu.RUnlock()
	if !ok {
		_, _ = c.Locations(ctx)
		c.locMu.RLock()
		l, ok = c.locs[id]
		c.locMu.RUnlock()
	}
	if !ok {
		return "", ""
	}
	return l.Code, l.Name
}

/********** purge & stats **********/

// Purge removes every cached key matching the glob pattern and reports how
// many were dropped.
func (c *Catalog) Purge(ctx context.Context, pattern string) int {
	keys, _ := c.cache.Scan(ctx, pattern)
	for _, k := range keys {
		_ = c.cache.Del(ctx, k)
	}
	return len(keys)
}

func (c *Catalog) CacheStats(ctx context.Context) domain.CacheStats {
	st, _ := c.cache.Stats(ctx)
	return st
}

/********** search **********/

// Search ranks the aggregated catalog against a free-text query. Scope
// selects the searched subset: "transfers", "all", or the default excursions.
func (c *Catalog) Search(ctx context.Context, query, scope string, limit int) []domain.ViewModel {
	var items []domain.ViewModel
	switch scope {
	case "transfers":
		items = c.Transfers(ctx, "")
	case "all":
		items = append(items, c.AllPrivateExcursions(ctx)...)
		items = append(items, c.Transfers(ctx, "")...)
	default:
		items = c.AllPrivateExcursions(ctx)
	}
	if limit <= 0 {
		limit = 20
	}
	scored := search.Hybrid(query, items,
		func(v domain.ViewModel) string { return v.Name },
		func(v domain.ViewModel) string { return v.FullDescr },
		limit, 55)
	out := make([]domain.ViewModel, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Item)
	}
	return out
}

/********** shared helpers **********/

// ceilDiv is pagination arithmetic: pages needed for n items at per each.
func ceilDiv(n, per int) int {
	if per <= 0 {
		return 0
	}
	return (n + per - 1) / per
}
