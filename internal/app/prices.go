package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
)

const isoDate = "2006-01-02"

// RoomNightlyPrice resolves the displayed nightly price for a room: the
// minimum per-room component over the schedule entries overlapping the
// requested stay. Zero means no applicable price; zeros are never cached
// because they may reflect a transient upstream gap.
func (c *Catalog) RoomNightlyPrice(ctx context.Context, roomID int64, checkIn, checkOut string) float64 {
	key := keyRoomPrice(roomID, checkIn, checkOut)
	var cached float64
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		rows, err := c.api.RoomPrices(ctx, roomID)
		if err != nil {
			return float64(0), err
		}
		entries := make([]domain.ScheduleEntry, 0, len(rows))
		for _, r := range rows {
			if e, ok := schema.Schedule(r); ok {
				entries = append(entries, e)
			}
		}
		price := reduceSchedule(roomID, entries, checkIn, checkOut)
		if price > 0 {
			_ = c.cache.Set(ctx, key, price, c.ttl.Short)
		}
		return price, nil
	})
	if err != nil {
		log.Error().Err(err).Int64("room", roomID).Msg("room price fetch failed")
		return 0
	}
	return v.(float64)
}

// reduceSchedule intersects the schedule with the stay window and takes the
// cheapest base per-room component. An entry overlaps when
// checkIn <= edt && checkOut >= sdt. Entries without bounds only apply when
// the caller gave no dates.
func reduceSchedule(roomID int64, entries []domain.ScheduleEntry, checkIn, checkOut string) float64 {
	var inTS, outTS int64
	hasDates := false
	if checkIn != "" && checkOut != "" {
		ci, errIn := time.ParseInLocation(isoDate, checkIn, eventTZ)
		co, errOut := time.ParseInLocation(isoDate, checkOut, eventTZ)
		if errIn == nil && errOut == nil {
			inTS, outTS, hasDates = ci.Unix(), co.Unix(), true
		}
	}

	var min float64
	for _, e := range entries {
		if hasDates {
			if e.Sdt == 0 || e.Edt == 0 {
				log.Warn().Int64("room", roomID).Msg("price entry without validity bounds, skipping")
				continue
			}
			if inTS > e.Edt || outTS < e.Sdt {
				continue
			}
		}
		for _, comp := range e.Components {
			if comp.Per != domain.PerObject || comp.Price <= 0 {
				continue // add-ons never reach the displayed price
			}
			if min == 0 || comp.Price < min {
				min = comp.Price
			}
		}
	}
	return min
}
