package app

import (
	"context"
	"testing"
	"time"

	"island_catalog/internal/domain"
)

func companionFixture() []map[string]any {
	svc := serviceRow(50, "Kawasan Falls", 9, map[string]any{
		"rlst": []any{map[string]any{"clst": []any{
			component(1200, 0, 2),
			component(900, 0, 4),
		}}},
	})
	groupSvc := serviceRow(51, "Group Departure", 9, map[string]any{"group_ex": float64(1)})

	return []map[string]any{
		dayRow("05.09.2026",
			eventRow(500, pht(2026, time.September, 5), 0, svc,
				map[string]any{"title": "Anna", "pax": float64(2), "phone": "+63 900 000 0001", "im": "@anna"},
				map[string]any{"title": "Mark", "pax": float64(1)},
			),
		),
		dayRow("07.09.2026", eventRow(501, pht(2026, time.September, 7), 0, groupSvc)),
		dayRow("01.10.2026", eventRow(502, pht(2026, time.October, 1), 0, svc)), // calendar spill
	}
}

func TestCompanionsByMonth(t *testing.T) {
	api := newFakeAPI()
	api.companions = func(locID int64, month time.Time) ([]map[string]any, error) {
		return companionFixture(), nil
	}
	c := newTestCatalog(api, newMemCache())

	got := c.CompanionsByMonth(context.Background(), 9, 2026, time.September)
	if len(got) != 1 {
		t.Fatalf("companions = %d, want 1 (group + next-month events excluded)", len(got))
	}
	vm := got[0]
	if vm.Type != domain.TypeCompanion || vm.ID != 500 {
		t.Fatalf("vm = %+v, want companion event 500", vm)
	}
	if vm.Pax != 3 {
		t.Fatalf("pax = %d, want 3 (sum of joined requests)", vm.Pax)
	}
	if vm.Date != "05.09.2026" {
		t.Fatalf("date = %s, want 05.09.2026", vm.Date)
	}
	if len(vm.Companions) != 0 {
		t.Fatalf("list view carries %d companion contacts, want none", len(vm.Companions))
	}

	c.CompanionsByMonth(context.Background(), 9, 2026, time.September)
	if got := api.count("companions"); got != 1 {
		t.Fatalf("calendar calls = %d, want 1 (second month served from cache)", got)
	}
}

func TestCompanionByID(t *testing.T) {
	api := newFakeAPI()
	api.companions = func(locID int64, month time.Time) ([]map[string]any, error) {
		return companionFixture(), nil
	}
	c := newTestCatalog(api, newMemCache())

	vm, err := c.CompanionByID(context.Background(), 9, 2026, time.September, 500)
	if err != nil {
		t.Fatalf("CompanionByID: %v", err)
	}
	if len(vm.Companions) != 2 || vm.Companions[0].Title != "Anna" || vm.Companions[0].Pax != 2 {
		t.Fatalf("companions = %+v, want Anna(2) and Mark(1)", vm.Companions)
	}
	if vm.Price != 900 {
		t.Fatalf("price = %v, want cheapest ladder step 900", vm.Price)
	}

	if _, err := c.CompanionByID(context.Background(), 9, 2026, time.September, 501); err != domain.ErrNotFound {
		t.Fatalf("group event lookup err = %v, want ErrNotFound", err)
	}
}
