package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
)

// Transfers lists the adult transfer catalog, optionally narrowed to one
// island code. Child tariffs (childrate > 0) are upstream bookkeeping rows
// and never shown.
func (c *Catalog) Transfers(ctx context.Context, island string) []domain.ViewModel {
	key := keyTransfers(island)
	var cached []domain.ViewModel
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached
	}
	v, _, _ := c.sf.Do(key, func() (any, error) {
		all, err := c.fetchTransfers(ctx)
		if err != nil {
			log.Error().Err(err).Msg("transfers fetch failed")
			return []domain.ViewModel{}, nil
		}
		wantLoc := IslandID(island)
		out := []domain.ViewModel{}
		for _, t := range all {
			if island != "" && t.Location != wantLoc {
				continue
			}
			out = append(out, c.transferVM(ctx, t))
		}
		_ = c.cache.Set(ctx, key, out, c.ttl.Medium)
		return out, nil
	})
	return v.([]domain.ViewModel)
}

// TransferWithPrices resolves one transfer together with its group-size price
// ladder, merged from the price schedule. The headline price is the cheapest
// ladder step.
func (c *Catalog) TransferWithPrices(ctx context.Context, id int64) (domain.ViewModel, error) {
	all, err := c.fetchTransfers(ctx)
	if err != nil {
		log.Error().Err(err).Int64("transfer", id).Msg("transfers fetch failed")
		return domain.ViewModel{}, domain.ErrNotFound
	}
	for _, t := range all {
		if t.ID != id {
			continue
		}
		ladder, err := c.transferLadder(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int64("transfer", id).Msg("transfer prices fetch failed, serving without ladder")
		}
		t.Ladder = ladder
		vm := c.transferVM(ctx, t)
		vm.Price = ladderMin(ladder)
		return vm, nil
	}
	return domain.ViewModel{}, domain.ErrNotFound
}

// fetchTransfers loads the full raw transfer list, child tariffs already
// excluded, ranked by ord descending.
func (c *Catalog) fetchTransfers(ctx context.Context) ([]domain.Transfer, error) {
	v, err, _ := c.sf.Do("transfers:raw", func() (any, error) {
		rows, err := c.api.Transfers(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Transfer, 0, len(rows))
		for _, r := range rows {
			t, ok := schema.Transfer(r)
			if !ok || t.ChildRate > 0 {
				continue
			}
			out = append(out, t)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Ord > out[j].Ord })
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Transfer), nil
}

// transferLadder merges every schedule entry's group components into one
// ladder. Entries arrive oldest first; a later entry overrides the price for
// a group size it shares with an earlier one.
func (c *Catalog) transferLadder(ctx context.Context, id int64) (map[int]float64, error) {
	key := fmt.Sprintf("transfer:prices:%d", id)
	var cached map[int]float64
	if ok, _ := c.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		rows, err := c.api.TransferPrices(ctx, id)
		if err != nil {
			return nil, err
		}
		ladder := map[int]float64{}
		for _, r := range rows {
			e, ok := schema.Schedule(r)
			if !ok {
				continue
			}
			for _, comp := range e.Components {
				if comp.Grp > 0 && comp.Price > 0 {
					ladder[comp.Grp] = comp.Price
				}
			}
		}
		if len(ladder) > 0 {
			_ = c.cache.Set(ctx, key, ladder, c.ttl.Short)
		}
		return ladder, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int]float64), nil
}

// PriceFor picks the ladder step for a party of n: an exact match, otherwise
// the smallest step that fits everyone, otherwise the largest step available.
func PriceFor(ladder map[int]float64, n int) float64 {
	if len(ladder) == 0 || n <= 0 {
		return 0
	}
	if p, ok := ladder[n]; ok {
		return p
	}
	bestFit, largest := 0, 0
	for grp := range ladder {
		if grp >= n && (bestFit == 0 || grp < bestFit) {
			bestFit = grp
		}
		if grp > largest {
			largest = grp
		}
	}
	if bestFit > 0 {
		return ladder[bestFit]
	}
	return ladder[largest]
}
