package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "island_catalog/internal/adapters/redis"
)

type payload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestSetGetAndTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	in := payload{Name: "Sea Breeze", Price: 80}
	if err := c.Set(ctx, "hotel:rooms:101", in, 7200); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out payload
	ok, err := c.Get(ctx, "hotel:rooms:101", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Fatalf("round-trip mismatch: %+v", out)
	}

	// logical time beyond the TTL
	mr.FastForward(7201 * time.Second)
	if ok, _ := c.Get(ctx, "hotel:rooms:101", &out); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestScanAndFlush(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	_ = c.Set(ctx, "hotels:filtered:cebu:4", payload{}, 60)
	_ = c.Set(ctx, "hotels:filtered:cebu:5", payload{}, 60)
	_ = c.Set(ctx, "transfers:all", payload{}, 60)

	keys, err := c.Scan(ctx, "hotels:filtered:*")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 filtered keys, got %v", keys)
	}

	if err := c.FlushAll(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	var out payload
	if ok, _ := c.Get(ctx, "transfers:all", &out); ok {
		t.Fatal("expected empty store after flush")
	}
}

func TestStatsCountsHitsAndMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	var out payload
	_, _ = c.Get(ctx, "absent", &out)                 // miss
	_ = c.Set(ctx, "k", payload{Name: "x"}, 60)       //
	_, _ = c.Get(ctx, "k", &out)                      // hit
	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Hits != 1 || st.Misses != 1 || st.Keys != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.HitRate != 0.5 {
		t.Fatalf("hit rate: %v", st.HitRate)
	}
}

func TestDisabledModeIsANoop(t *testing.T) {
	// nothing listens here; constructor must fall back to bypass mode
	c := redisad.New("127.0.0.1:1", "", 0)
	if !c.Disabled() {
		t.Fatal("expected disabled mode")
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Name: "x"}, 60); err != nil {
		t.Fatalf("set must no-op, got %v", err)
	}
	var out payload
	ok, err := c.Get(ctx, "k", &out)
	if err != nil || ok {
		t.Fatalf("get must be a silent miss, ok=%v err=%v", ok, err)
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del must no-op, got %v", err)
	}
	keys, err := c.Scan(ctx, "*")
	if err != nil || keys != nil {
		t.Fatalf("scan must be empty, got %v %v", keys, err)
	}
}
