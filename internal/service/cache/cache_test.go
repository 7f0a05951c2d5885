package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.SetBytes(ctx, "a", []byte("1"), time.Minute)
	_ = c.SetBytes(ctx, "forever", []byte("2"), 0)
	if b, ok, _ := c.GetBytes(ctx, "a"); !ok || string(b) != "1" {
		t.Fatalf("expected hit")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "a"); ok {
		t.Fatalf("expected expiry")
	}
	if _, ok, _ := c.GetBytes(ctx, "forever"); !ok {
		t.Fatalf("zero ttl must not expire")
	}
	if c.Len() != 1 {
		t.Fatalf("expired entry not evicted, len=%d", c.Len())
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	type payload struct {
		Name string
		N    int
	}
	if err := SetJSON(ctx, c, "k", payload{"x", 3}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got payload
	ok, err := GetJSON(ctx, c, "k", &got)
	if err != nil || !ok || got.Name != "x" || got.N != 3 {
		t.Fatalf("unexpected %+v ok=%v err=%v", got, ok, err)
	}
	if ok, _ := GetJSON(ctx, c, "missing", &got); ok {
		t.Fatalf("expected miss")
	}
	_ = c.SetBytes(ctx, "bad", []byte("{"), 0)
	if _, err := GetJSON(ctx, c, "bad", &got); err == nil {
		t.Fatalf("expected decode error")
	}
}

type countingCache struct {
	*TTLCache
	gets int
}

func (c *countingCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets++
	return c.TTLCache.GetBytes(ctx, key)
}

func TestLayeredCache(t *testing.T) {
	ctx := context.Background()
	l2 := &countingCache{TTLCache: NewTTLCache()}
	lc := NewLayeredCache(l2, time.Minute)

	if err := lc.SetBytes(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if b, ok, _ := lc.GetBytes(ctx, "k"); !ok || string(b) != "v" {
		t.Fatalf("expected L1 hit")
	}
	if l2.gets != 0 {
		t.Fatalf("L1 hit must not reach L2, gets=%d", l2.gets)
	}

	_ = l2.SetBytes(ctx, "other", []byte("x"), time.Hour)
	if b, ok, _ := lc.GetBytes(ctx, "other"); !ok || string(b) != "x" {
		t.Fatalf("expected L2 hit")
	}
	if _, ok, _ := lc.GetBytes(ctx, "other"); !ok || l2.gets != 1 {
		t.Fatalf("L2 hit must be promoted to L1, gets=%d", l2.gets)
	}
	if _, ok, _ := lc.GetBytes(ctx, "missing"); ok {
		t.Fatalf("expected miss")
	}
}
