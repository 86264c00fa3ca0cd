package redis

import (
	"context"
	"testing"
	"time"

	"github.com/courseloom/courseloom-backend/internal/types"
)

func TestMemoryRatingCacheRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryRatingCache()

	if _, ok, err := c.Get(ctx, "c1"); err != nil || ok {
		t.Fatalf("Get on empty cache = (ok=%v, err=%v)", ok, err)
	}

	want := types.RatingSummary{CourseID: "c1", Average: 4.5, Count: 12}
	if err := c.Set(ctx, want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("Get = (ok=%v, err=%v)", ok, err)
	}
	if *got != want {
		t.Fatalf("Get = %+v, want %+v", *got, want)
	}

	if err := c.Invalidate(ctx, "c1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "c1"); ok {
		t.Fatal("entry survived Invalidate")
	}
}

func TestMemoryRatingCacheTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryRatingCache()

	if err := c.Set(ctx, types.RatingSummary{CourseID: "c1", Average: 4, Count: 1}, 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "c1"); ok {
		t.Fatal("entry survived its TTL")
	}
}
