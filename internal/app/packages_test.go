package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"island_catalog/internal/domain"
)

const packagesJSON = `[
  {"id": 1, "name": "Cebu + Bohol Week", "start": "2026-10-06", "end": "2026-10-13", "price": 45000, "descr": "Seven days across two islands."},
  {"id": 2, "name": "Palawan Escape", "start": "2026-09-19", "end": "2026-09-25", "price": 52000, "descr": "El Nido and Coron."},
  {"id": 3, "name": "New Year Special", "start": "2026-12-28", "end": "2027-01-04", "price": 80000, "descr": "Holiday departure."}
]`

func snapshotPath(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "packages.json")
	if err := os.WriteFile(p, []byte(packagesJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPackagesNear(t *testing.T) {
	c := New(newFakeAPI(), newMemCache(), "cdn.test", snapshotPath(t), DefaultTTL())

	target := time.Date(2026, time.October, 1, 0, 0, 0, 0, eventTZ)
	got := c.PackagesNear(context.Background(), target)
	if len(got) != 2 {
		t.Fatalf("packages = %d, want 2 (december departure out of window)", len(got))
	}
	// package 1 starts 5 days out, package 2 twelve days back
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("order = [%d %d], want nearest first [1 2]", got[0].ID, got[1].ID)
	}
	if got[0].Date != "06.10.2026" {
		t.Fatalf("date = %s, want 06.10.2026", got[0].Date)
	}
}

func TestPackageByID(t *testing.T) {
	c := New(newFakeAPI(), newMemCache(), "cdn.test", snapshotPath(t), DefaultTTL())

	vm, err := c.PackageByID(context.Background(), 2)
	if err != nil || vm.Name != "Palawan Escape" || vm.Price != 52000 {
		t.Fatalf("PackageByID = %+v, %v", vm, err)
	}
	if _, err := c.PackageByID(context.Background(), 99); err != domain.ErrNotFound {
		t.Fatalf("missing package err = %v, want ErrNotFound", err)
	}
}

func TestPackagesMissingSnapshot(t *testing.T) {
	c := New(newFakeAPI(), newMemCache(), "cdn.test", "/nonexistent/packages.json", DefaultTTL())

	if got := c.PackagesNear(context.Background(), time.Now()); len(got) != 0 {
		t.Fatalf("missing snapshot produced %d packages", len(got))
	}
}
