package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
)

const dateLayout = "02.01.2006"

// CompanionsByMonth returns the companion-finder events of one island for a
// calendar month. The upstream calendar can spill into neighbouring months,
// so days are filtered back to the requested one. Group departures and
// agents-only services never surface here.
func (c *Catalog) CompanionsByMonth(ctx context.Context, islandID int64, year int, month time.Month) []domain.ViewModel {
	key := keyCompanions(islandCode(islandID), year, month)
	var cached []domain.ViewModel
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached
	}
	v, _, _ := c.sf.Do(key, func() (any, error) {
		days, err := c.companionDays(ctx, islandID, year, month)
		if err != nil {
			log.Error().Err(err).Int64("island", islandID).Msg("companion calendar fetch failed")
			return []domain.ViewModel{}, nil
		}
		out := []domain.ViewModel{}
		for _, d := range days {
			for _, e := range d.Events {
				out = append(out, c.companionVM(ctx, e, false))
			}
		}
		_ = c.cache.Set(ctx, key, out, c.ttl.Short)
		return out, nil
	})
	return v.([]domain.ViewModel)
}

// CompanionByID returns the detailed view of one companion event, with the
// full list of joined requests and the ladder-derived per-person price.
func (c *Catalog) CompanionByID(ctx context.Context, islandID int64, year int, month time.Month, eventID int64) (domain.ViewModel, error) {
	days, err := c.companionDays(ctx, islandID, year, month)
	if err != nil {
		log.Error().Err(err).Int64("island", islandID).Int64("event", eventID).Msg("companion detail fetch failed")
		return domain.ViewModel{}, domain.ErrNotFound
	}
	for _, d := range days {
		for _, e := range d.Events {
			if e.ID == eventID {
				return c.companionVM(ctx, e, true), nil
			}
		}
	}
	return domain.ViewModel{}, domain.ErrNotFound
}

// companionDays fetches and filters one month of the companion calendar.
// Results are not cached as raw days; the detail path is cheap enough to
// refetch and the list path caches its view models.
func (c *Catalog) companionDays(ctx context.Context, islandID int64, year int, month time.Month) ([]domain.ExcursionDay, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, eventTZ)
	v, err, _ := c.sf.Do("companions:raw:"+keyCompanions(islandCode(islandID), year, month), func() (any, error) {
		rows, err := c.api.CompanionCalendar(ctx, islandID, first)
		if err != nil {
			return nil, err
		}
		out := []domain.ExcursionDay{}
		for _, r := range rows {
			d, ok := schema.Day(r)
			if !ok {
				continue
			}
			at, err := time.ParseInLocation(dateLayout, d.Date, eventTZ)
			if err != nil || at.Year() != year || at.Month() != month {
				continue
			}
			d.Events = companionEvents(d.Events)
			if len(d.Events) > 0 {
				out = append(out, d)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ExcursionDay), nil
}

// companionEvents keeps only events usable by the companion finder: the
// service must be known, not a scheduled group excursion and not agents-only.
func companionEvents(events []domain.ExcursionEvent) []domain.ExcursionEvent {
	out := events[:0]
	for _, e := range events {
		s := e.Service
		if s == nil || s.Group() || s.AgentsOnly > 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}
