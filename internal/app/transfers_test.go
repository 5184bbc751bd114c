package app

import (
	"context"
	"testing"

	"island_catalog/internal/domain"
)

func TestTransfers(t *testing.T) {
	api := newFakeAPI()
	api.transfers = []map[string]any{
		transferRow(1, "Airport - Mactan", 9, 5, 0),
		transferRow(2, "Airport - City", 9, 9, 0),
		transferRow(3, "Tagbilaran Pier", 10, 3, 0),
		transferRow(4, "Airport - City (child)", 9, 9, 500),
	}
	c := newTestCatalog(api, newMemCache())
	ctx := context.Background()

	cebu := c.Transfers(ctx, "cebu")
	if len(cebu) != 2 || cebu[0].ID != 2 || cebu[1].ID != 1 {
		t.Fatalf("cebu transfers = %+v, want [2 1] ord-descending, child tariff excluded", cebu)
	}

	all := c.Transfers(ctx, "")
	if len(all) != 3 {
		t.Fatalf("all transfers = %d, want 3", len(all))
	}
	if all[0].ID != 2 || all[1].ID != 1 || all[2].ID != 3 {
		t.Fatalf("order = [%d %d %d], want [2 1 3]", all[0].ID, all[1].ID, all[2].ID)
	}
}

func TestTransferWithPrices(t *testing.T) {
	api := newFakeAPI()
	api.transfers = []map[string]any{transferRow(1, "Airport - Mactan", 9, 5, 0)}
	api.transferPrices[1] = []map[string]any{
		scheduleRow(0, 0, component(2500, 0, 1), component(3000, 0, 2)),
		scheduleRow(0, 0, component(2800, 0, 2)), // newer entry overrides grp 2
	}
	c := newTestCatalog(api, newMemCache())

	vm, err := c.TransferWithPrices(context.Background(), 1)
	if err != nil {
		t.Fatalf("TransferWithPrices: %v", err)
	}
	want := map[int]float64{1: 2500, 2: 2800}
	if len(vm.Ladder) != len(want) {
		t.Fatalf("ladder = %v, want %v", vm.Ladder, want)
	}
	for grp, price := range want {
		if vm.Ladder[grp] != price {
			t.Fatalf("ladder[%d] = %v, want %v", grp, vm.Ladder[grp], price)
		}
	}
	if vm.Price != 2500 {
		t.Fatalf("headline price = %v, want cheapest step 2500", vm.Price)
	}

	if _, err := c.TransferWithPrices(context.Background(), 42); err != domain.ErrNotFound {
		t.Fatalf("missing transfer err = %v, want ErrNotFound", err)
	}
}

func TestPriceFor(t *testing.T) {
	ladder := map[int]float64{1: 2500, 2: 2800, 4: 4000}

	cases := []struct {
		n    int
		want float64
	}{
		{1, 2500},  // exact
		{2, 2800},  // exact
		{3, 4000},  // smallest step that fits
		{4, 4000},  // exact
		{7, 4000},  // nothing fits, largest step
		{0, 0},     // nonsense party size
	}
	for _, tc := range cases {
		if got := PriceFor(ladder, tc.n); got != tc.want {
			t.Fatalf("PriceFor(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
	if got := PriceFor(nil, 2); got != 0 {
		t.Fatalf("PriceFor on empty ladder = %v, want 0", got)
	}
}
