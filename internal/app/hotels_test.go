package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"island_catalog/internal/domain"
)

// cebuFixture returns 23 hotels, 9 of them four-star, with ord equal to the
// hotel id so the expected ranking is simply id descending.
func cebuFixture() []map[string]any {
	rows := make([]map[string]any, 0, 23)
	for id := int64(1); id <= 23; id++ {
		stars := 3
		if id%2 == 1 && id <= 17 { // 1,3,...,17: nine four-star hotels
			stars = 4
		}
		rows = append(rows, hotelRow(id, "Hotel "+string(rune('A'+id-1)), stars, int(id)))
	}
	return rows
}

func pagedHotels(rows []map[string]any) func(string, int, int) ([]map[string]any, domain.Pages, error) {
	return func(loc string, perPage, start int) ([]map[string]any, domain.Pages, error) {
		if start >= len(rows) {
			return nil, domain.Pages{Total: len(rows)}, nil
		}
		end := start + perPage
		if end > len(rows) {
			end = len(rows)
		}
		return rows[start:end], domain.Pages{Total: len(rows), PerPage: perPage, Start: start}, nil
	}
}

func TestListHotelsFilteredPagination(t *testing.T) {
	api := newFakeAPI()
	api.hotels = pagedHotels(cebuFixture())
	c := newTestCatalog(api, newMemCache())
	ctx := context.Background()

	p0 := c.ListHotels(ctx, "cebu", 4, 0, 4, "", "")
	if p0.Total != 9 || p0.TotalPages != 3 {
		t.Fatalf("total = %d/%d pages, want 9/3", p0.Total, p0.TotalPages)
	}
	if len(p0.Items) != 4 {
		t.Fatalf("page 0 has %d items, want 4", len(p0.Items))
	}
	wantIDs := []int64{17, 15, 13, 11}
	for i, vm := range p0.Items {
		if vm.ID != wantIDs[i] {
			t.Fatalf("page 0 item %d = hotel %d, want %d", i, vm.ID, wantIDs[i])
		}
	}

	p2 := c.ListHotels(ctx, "cebu", 4, 2, 4, "", "")
	if len(p2.Items) != 1 || p2.Items[0].ID != 1 {
		t.Fatalf("page 2 = %+v, want the single hotel 1", p2.Items)
	}

	// both pages come off one cached filtered list
	if got := api.count("hotels"); got != 1 {
		t.Fatalf("upstream hotel calls = %d, want 1", got)
	}

	again := c.ListHotels(ctx, "cebu", 4, 0, 4, "", "")
	for i, vm := range again.Items {
		if vm.ID != p0.Items[i].ID {
			t.Fatalf("page 0 not deterministic: item %d = %d, then %d", i, p0.Items[i].ID, vm.ID)
		}
	}
}

func TestFilteredHotelsSpansAllUpstreamPages(t *testing.T) {
	// 620 hotels, every 20th four-star: the last four-star entries sit well
	// past the 500th row, so any cap on the list walk would drop them
	rows := make([]map[string]any, 0, 620)
	for id := int64(1); id <= 620; id++ {
		stars := 3
		if id%20 == 0 {
			stars = 4
		}
		rows = append(rows, hotelRow(id, "H", stars, int(id)))
	}
	api := newFakeAPI()
	api.hotels = pagedHotels(rows)
	c := newTestCatalog(api, newMemCache())

	got, err := c.filteredHotels(context.Background(), "cebu", 4)
	if err != nil {
		t.Fatalf("filteredHotels: %v", err)
	}
	if len(got) != 31 {
		t.Fatalf("filtered list has %d four-star hotels, want 31", len(got))
	}
	if got[0].ID != 620 || got[len(got)-1].ID != 20 {
		t.Fatalf("list spans %d..%d, want 620..20 ord-descending", got[0].ID, got[len(got)-1].ID)
	}
	// 620 hotels at a 100-row batch is seven upstream pages
	if calls := api.count("hotels"); calls != 7 {
		t.Fatalf("upstream hotel calls = %d, want 7", calls)
	}
}

func TestFilteredHotelsSingleFlight(t *testing.T) {
	api := newFakeAPI()
	api.hotels = pagedHotels(cebuFixture())
	api.delay = 20 * time.Millisecond
	c := newTestCatalog(api, newMemCache())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.filteredHotels(context.Background(), "cebu", 4)
			if err != nil || len(got) != 9 {
				t.Errorf("filteredHotels = %d hotels, err %v", len(got), err)
			}
		}()
	}
	wg.Wait()

	if got := api.count("hotels"); got != 1 {
		t.Fatalf("50 concurrent callers caused %d upstream calls, want 1", got)
	}
}

func TestListHotelsUpstreamFailure(t *testing.T) {
	api := newFakeAPI()
	api.hotels = func(string, int, int) ([]map[string]any, domain.Pages, error) {
		return nil, domain.Pages{}, domain.ErrTransport
	}
	c := newTestCatalog(api, newMemCache())

	page := c.ListHotels(context.Background(), "cebu", 4, 0, 10, "", "")
	if len(page.Items) != 0 || page.Total != 0 {
		t.Fatalf("failed upstream produced non-empty page: %+v", page)
	}
}

func TestListHotelsCacheDisabled(t *testing.T) {
	api := newFakeAPI()
	api.hotels = pagedHotels(cebuFixture())
	cache := newMemCache()
	cache.disabled = true
	c := newTestCatalog(api, cache)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.filteredHotels(ctx, "cebu", 4); err != nil {
			t.Fatalf("filteredHotels: %v", err)
		}
	}
	if got := api.count("hotels"); got != 2 {
		t.Fatalf("disabled cache: upstream calls = %d, want 2", got)
	}
}

func TestHotelDetail(t *testing.T) {
	rows := make([]map[string]any, 0, 150)
	for id := int64(1); id <= 150; id++ {
		rows = append(rows, hotelRow(id, "H", 3, int(id)))
	}
	api := newFakeAPI()
	api.hotels = pagedHotels(rows)
	api.rooms[137] = []map[string]any{roomRow(501, "Deluxe"), roomRow(502, "Suite")}
	api.prices[501] = []map[string]any{
		scheduleRow(0, 0, component(3500, domain.PerObject, 0), component(500, 1, 0)),
	}
	api.prices[502] = []map[string]any{scheduleRow(0, 0, component(4200, domain.PerObject, 0))}
	c := newTestCatalog(api, newMemCache())

	vm, err := c.HotelDetail(context.Background(), 137, "cebu", "", "")
	if err != nil {
		t.Fatalf("HotelDetail: %v", err)
	}
	if len(vm.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(vm.Rooms))
	}
	if vm.Rooms[0].Price != 3500 {
		t.Fatalf("deluxe price = %v, want 3500 (per-object only)", vm.Rooms[0].Price)
	}
	if vm.Price != 3500 {
		t.Fatalf("headline price = %v, want cheapest room 3500", vm.Price)
	}
	// hotel 137 sits on the second upstream page
	if got := api.count("hotels"); got != 2 {
		t.Fatalf("detail walk = %d hotel calls, want 2", got)
	}
}

func TestHotelDetailRequiresLocation(t *testing.T) {
	api := newFakeAPI()
	c := newTestCatalog(api, newMemCache())

	if _, err := c.HotelDetail(context.Background(), 1, "", "", ""); err != domain.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := api.count("hotels"); got != 0 {
		t.Fatalf("detail without location hit upstream %d times", got)
	}
}

func TestRoomLookup(t *testing.T) {
	api := newFakeAPI()
	api.rooms[7] = []map[string]any{roomRow(70, "Standard"), roomRow(71, "Family")}
	c := newTestCatalog(api, newMemCache())
	ctx := context.Background()

	r, err := c.Room(ctx, 7, 71)
	if err != nil || r.Name != "Family" {
		t.Fatalf("Room = %+v, %v", r, err)
	}
	if _, err := c.Room(ctx, 7, 99); err != domain.ErrNotFound {
		t.Fatalf("missing room err = %v, want ErrNotFound", err)
	}
	if got := api.count("rooms"); got != 1 {
		t.Fatalf("room list fetched %d times, want 1 (second lookup cached)", got)
	}
}
