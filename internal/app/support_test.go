package app

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"island_catalog/internal/domain"
)

// fakeAPI is an in-memory TourClient with per-endpoint fixtures and call
// counting, so tests can assert how often the upstream was actually hit.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	locations []map[string]any
	hotels    func(loc string, perPage, start int) ([]map[string]any, domain.Pages, error)
	rooms     map[int64][]map[string]any
	roomsErr  error
	prices    map[int64][]map[string]any
	pricesErr error
	services  func(search string, id int64) ([]map[string]any, error)

	private    map[int64][]map[string]any
	privateErr error
	daily      []map[string]any
	group      func(code string, date time.Time) ([]map[string]any, error)
	companions func(locID int64, month time.Time) ([]map[string]any, error)

	transfers      []map[string]any
	transferPrices map[int64][]map[string]any

	delay time.Duration
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:          map[string]int{},
		rooms:          map[int64][]map[string]any{},
		prices:         map[int64][]map[string]any{},
		private:        map[int64][]map[string]any{},
		transferPrices: map[int64][]map[string]any{},
	}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Locations(ctx context.Context) ([]map[string]any, error) {
	f.hit("locations")
	return f.locations, nil
}

func (f *fakeAPI) Hotels(ctx context.Context, loc string, perPage, start int) ([]map[string]any, domain.Pages, error) {
	f.hit("hotels")
	if f.hotels == nil {
		return nil, domain.Pages{}, nil
	}
	return f.hotels(loc, perPage, start)
}

func (f *fakeAPI) HotelRooms(ctx context.Context, hotelID int64) ([]map[string]any, error) {
	f.hit("rooms")
	return f.rooms[hotelID], f.roomsErr
}

func (f *fakeAPI) RoomPrices(ctx context.Context, roomID int64) ([]map[string]any, error) {
	f.hit("prices")
	return f.prices[roomID], f.pricesErr
}

func (f *fakeAPI) Services(ctx context.Context, search string, id int64, perPage, start int) ([]map[string]any, domain.Pages, error) {
	f.hit("services")
	if f.services == nil {
		return nil, domain.Pages{}, nil
	}
	rows, err := f.services(search, id)
	return rows, domain.Pages{Total: len(rows)}, err
}

func (f *fakeAPI) PrivateExcursions(ctx context.Context, locationID int64) ([]map[string]any, error) {
	f.hit("private")
	return f.private[locationID], f.privateErr
}

func (f *fakeAPI) DailyExcursions(ctx context.Context) ([]map[string]any, error) {
	f.hit("daily")
	return f.daily, nil
}

func (f *fakeAPI) GroupCalendar(ctx context.Context, code string, date time.Time) ([]map[string]any, error) {
	f.hit("group")
	if f.group == nil {
		return nil, nil
	}
	return f.group(code, date)
}

func (f *fakeAPI) CompanionCalendar(ctx context.Context, locID int64, month time.Time) ([]map[string]any, error) {
	f.hit("companions")
	if f.companions == nil {
		return nil, nil
	}
	return f.companions(locID, month)
}

func (f *fakeAPI) Transfers(ctx context.Context) ([]map[string]any, error) {
	f.hit("transfers")
	return f.transfers, nil
}

func (f *fakeAPI) TransferPrices(ctx context.Context, transferID int64) ([]map[string]any, error) {
	f.hit("transfer_prices")
	return f.transferPrices[transferID], nil
}

// memCache is a map-backed Cache that round-trips values through JSON the way
// the Redis adapter does. disabled simulates an unreachable store: every read
// misses and every write is dropped.
type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	disabled bool
	hits     int64
	misses   int64
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return false, nil
	}
	raw, ok := m.data[key]
	if !ok {
		m.misses++
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	m.hits++
	return true, nil
}

func (m *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memCache) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Scan(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memCache) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func (m *memCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := domain.CacheStats{Keys: int64(len(m.data)), Hits: m.hits, Misses: m.misses}
	if total := m.hits + m.misses; total > 0 {
		st.HitRate = float64(m.hits) / float64(total)
	}
	return st, nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

/********** row builders **********/

func hotelRow(id int64, name string, stars, ord int) map[string]any {
	return map[string]any{
		"id": float64(id), "name": name,
		"stars": float64(stars), "ord": float64(ord),
	}
}

func roomRow(id int64, name string) map[string]any {
	return map[string]any{"id": float64(id), "name": name}
}

func component(price float64, per, grp int) map[string]any {
	return map[string]any{"price": price, "per": float64(per), "grp": float64(grp)}
}

func scheduleRow(sdt, edt int64, comps ...map[string]any) map[string]any {
	r := map[string]any{"plst": anySlice(comps)}
	if sdt != 0 {
		r["sdt"] = float64(sdt)
	}
	if edt != 0 {
		r["edt"] = float64(edt)
	}
	return r
}

func serviceRow(id int64, name string, location int64, extra map[string]any) map[string]any {
	r := map[string]any{"id": float64(id), "name": name, "location": float64(location)}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func eventRow(id, sdt int64, price float64, service map[string]any, slst ...map[string]any) map[string]any {
	r := map[string]any{"id": float64(id), "sdt": float64(sdt), "price": price}
	if service != nil {
		r["service"] = service
	}
	if len(slst) > 0 {
		r["slst"] = anySlice(slst)
	}
	return r
}

func dayRow(date string, events ...map[string]any) map[string]any {
	return map[string]any{"date": date, "lst": anySlice(events)}
}

func transferRow(id int64, name string, location int64, ord int, childRate float64) map[string]any {
	return map[string]any{
		"id": float64(id), "name": name, "location": float64(location),
		"ord": float64(ord), "childrate": childRate,
	}
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func newTestCatalog(api domain.TourClient, cache domain.Cache) *Catalog {
	return New(api, cache, "cdn.test", "", DefaultTTL())
}

func pht(y int, mo time.Month, d int) int64 {
	return time.Date(y, mo, d, 0, 0, 0, 0, eventTZ).Unix()
}
