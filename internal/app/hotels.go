package app

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
)

const (
	// prices are resolved eagerly for at most this many hotels per page;
	// the rest resolve on demand when the hotel is opened
	maxPricedHotels = 15
	// detail lookups walk upstream pages of a location up to this many hotels
	detailScanCap = 500
	upstreamBatch = 100
	hotelFanout   = 8
)

// ListHotels returns one page of the hotel catalog for a location.
//
// With a star filter the full filtered list is fetched once, sorted by ord
// descending (stable) and cached, so that page N is deterministic for a given
// filter; pagination is a slice of that list. Without a filter pagination is
// delegated to the upstream. List-level failures yield an empty page, never
// an error.
func (c *Catalog) ListHotels(ctx context.Context, location string, stars, page, perPage int, checkIn, checkOut string) domain.HotelsPage {
	if perPage <= 0 {
		perPage = 10
	}
	if page < 0 {
		page = 0
	}

	var (
		hotels []domain.Hotel
		total  int
	)
	if stars > 0 {
		full, err := c.filteredHotels(ctx, location, stars)
		if err != nil {
			log.Error().Err(err).Str("location", location).Int("stars", stars).Msg("hotel list fetch failed")
			return domain.HotelsPage{Items: []domain.ViewModel{}, Page: page}
		}
		total = len(full)
		lo := page * perPage
		if lo >= total {
			return domain.HotelsPage{Items: []domain.ViewModel{}, Total: total, Page: page, TotalPages: ceilDiv(total, perPage)}
		}
		hi := lo + perPage
		if hi > total {
			hi = total
		}
		hotels = full[lo:hi]
	} else {
		rows, pages, err := c.api.Hotels(ctx, location, perPage, page*perPage)
		if err != nil {
			log.Error().Err(err).Str("location", location).Msg("hotel list fetch failed")
			return domain.HotelsPage{Items: []domain.ViewModel{}, Page: page}
		}
		for _, r := range rows {
			if h, ok := schema.Hotel(r); ok {
				hotels = append(hotels, h)
			}
		}
		total = pages.Total
		if total == 0 {
			total = len(hotels)
		}
	}

	return domain.HotelsPage{
		Items:      c.hotelViews(ctx, hotels, checkIn, checkOut),
		Total:      total,
		Page:       page,
		TotalPages: ceilDiv(total, perPage),
	}
}

// filteredHotels returns the complete (location, stars) list, ord-descending.
func (c *Catalog) filteredHotels(ctx context.Context, location string, stars int) ([]domain.Hotel, error) {
	key := keyFilteredHotels(location, stars)
	var cached []domain.Hotel
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		all, err := c.allHotels(ctx, location)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Hotel, 0, len(all))
		for _, h := range all {
			if h.Stars == stars {
				out = append(out, h)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Ord > out[j].Ord })
		_ = c.cache.Set(ctx, key, out, c.ttl.Medium)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Hotel), nil
}

// allHotels walks every upstream page of a location. The filtered list built
// on top of it must be complete: pagination slices it, so a dropped tail
// would make high page numbers lie.
func (c *Catalog) allHotels(ctx context.Context, location string) ([]domain.Hotel, error) {
	var out []domain.Hotel
	for start := 0; ; start += upstreamBatch {
		rows, pages, err := c.api.Hotels(ctx, location, upstreamBatch, start)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if h, ok := schema.Hotel(r); ok {
				out = append(out, h)
			}
		}
		if len(rows) == 0 || start+upstreamBatch >= pages.Total {
			break
		}
	}
	return out, nil
}

// hotelViews builds page items, loading rooms and prices for the first
// maxPricedHotels entries in parallel. A hotel whose rooms cannot be fetched
// still appears, with an empty rooms list.
func (c *Catalog) hotelViews(ctx context.Context, hotels []domain.Hotel, checkIn, checkOut string) []domain.ViewModel {
	out := make([]domain.ViewModel, len(hotels))
	sem := semaphore.NewWeighted(hotelFanout)
	var wg sync.WaitGroup
	for i, h := range hotels {
		if i >= maxPricedHotels {
			out[i] = c.hotelVM(ctx, h, nil)
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			out[i] = c.hotelVM(ctx, h, nil)
			continue
		}
		wg.Add(1)
		go func(i int, h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)
			out[i] = c.hotelVM(ctx, h, c.roomViews(ctx, h.ID, checkIn, checkOut))
		}(i, h)
	}
	wg.Wait()
	return out
}

// roomViews loads the room list and resolves every room's nightly price in
// parallel. A failed branch becomes a zero price, never a failed page.
func (c *Catalog) roomViews(ctx context.Context, hotelID int64, checkIn, checkOut string) []domain.RoomView {
	rooms, err := c.roomsForHotel(ctx, hotelID)
	if err != nil {
		log.Warn().Err(err).Int64("hotel", hotelID).Msg("rooms fetch failed, serving hotel without rooms")
		return nil
	}
	out := make([]domain.RoomView, len(rooms))
	var wg sync.WaitGroup
	for i, r := range rooms {
		wg.Add(1)
		go func(i int, r domain.HotelRoom) {
			defer wg.Done()
			out[i] = domain.RoomView{
				ID:    r.ID,
				Name:  r.Name,
				Price: c.RoomNightlyPrice(ctx, r.ID, checkIn, checkOut),
			}
		}(i, r)
	}
	wg.Wait()
	return out
}

func (c *Catalog) roomsForHotel(ctx context.Context, hotelID int64) ([]domain.HotelRoom, error) {
	key := keyHotelRooms(hotelID)
	var cached []domain.HotelRoom
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		rows, err := c.api.HotelRooms(ctx, hotelID)
		if err != nil {
			return nil, err
		}
		out := make([]domain.HotelRoom, 0, len(rows))
		for _, r := range rows {
			if room, ok := schema.Room(r); ok {
				if room.HotelID == 0 {
					room.HotelID = hotelID
				}
				out = append(out, room)
			}
		}
		_ = c.cache.Set(ctx, key, out, c.ttl.Medium)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.HotelRoom), nil
}

// HotelDetail finds one hotel by id within a location and resolves all of its
// rooms with prices. The location code is required: without it the whole
// region tree would have to be scanned.
func (c *Catalog) HotelDetail(ctx context.Context, hotelID int64, locationCode, checkIn, checkOut string) (domain.ViewModel, error) {
	if locationCode == "" {
		log.Warn().Int64("hotel", hotelID).Msg("hotel detail requested without location code")
		return domain.ViewModel{}, domain.ErrNotFound
	}
	for start := 0; start < detailScanCap; start += upstreamBatch {
		rows, pages, err := c.api.Hotels(ctx, locationCode, upstreamBatch, start)
		if err != nil {
			log.Error().Err(err).Int64("hotel", hotelID).Msg("hotel detail walk failed")
			return domain.ViewModel{}, domain.ErrNotFound
		}
		for _, r := range rows {
			h, ok := schema.Hotel(r)
			if !ok || h.ID != hotelID {
				continue
			}
			return c.hotelVM(ctx, h, c.roomViews(ctx, h.ID, checkIn, checkOut)), nil
		}
		if len(rows) == 0 || start+upstreamBatch >= pages.Total {
			break
		}
	}
	return domain.ViewModel{}, domain.ErrNotFound
}

// Room returns one room of a hotel, served from the cached room list when
// available.
func (c *Catalog) Room(ctx context.Context, hotelID, roomID int64) (domain.HotelRoom, error) {
	rooms, err := c.roomsForHotel(ctx, hotelID)
	if err != nil {
		return domain.HotelRoom{}, domain.ErrNotFound
	}
	for _, r := range rooms {
		if r.ID == roomID {
			return r, nil
		}
	}
	return domain.HotelRoom{}, domain.ErrNotFound
}
