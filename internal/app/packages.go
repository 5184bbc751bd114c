package app

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
)

// packageWindow bounds how far a package start may sit from the requested
// date in either direction.
const packageWindow = 30 * 24 * time.Hour

// loadPackages reads the local package snapshot once per process. A missing
// or broken snapshot degrades to an empty catalog.
func (c *Catalog) loadPackages() []domain.Package {
	c.pkgOnce.Do(func() {
		if c.pkgPath == "" {
			return
		}
		raw, err := os.ReadFile(c.pkgPath)
		if err != nil {
			log.Warn().Err(err).Str("path", c.pkgPath).Msg("package snapshot unavailable")
			return
		}
		if err := json.Unmarshal(raw, &c.pkgs); err != nil {
			log.Error().Err(err).Str("path", c.pkgPath).Msg("package snapshot unreadable")
			c.pkgs = nil
		}
	})
	return c.pkgs
}

// PackagesNear returns packages whose start date falls within a month of the
// target, nearest first.
func (c *Catalog) PackagesNear(ctx context.Context, target time.Time) []domain.ViewModel {
	type candidate struct {
		pkg  domain.Package
		dist time.Duration
	}
	var picked []candidate
	for _, p := range c.loadPackages() {
		start, err := time.ParseInLocation(isoDate, p.Start, eventTZ)
		if err != nil {
			log.Warn().Int64("package", p.ID).Str("start", p.Start).Msg("package with unparseable start date")
			continue
		}
		dist := start.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if dist > packageWindow {
			continue
		}
		picked = append(picked, candidate{pkg: p, dist: dist})
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].dist < picked[j].dist })

	out := make([]domain.ViewModel, 0, len(picked))
	for _, c := range picked {
		out = append(out, packageVM(c.pkg))
	}
	return out
}

// PackageByID returns one package from the snapshot.
func (c *Catalog) PackageByID(ctx context.Context, id int64) (domain.ViewModel, error) {
	for _, p := range c.loadPackages() {
		if p.ID == id {
			return packageVM(p), nil
		}
	}
	return domain.ViewModel{}, domain.ErrNotFound
}
