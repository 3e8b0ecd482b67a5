package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("thumb", "https://i.ytimg.com/vi/abc/hqdefault.jpg")
		k2 := CacheKey("thumb", "https://i.ytimg.com/vi/abc/hqdefault.jpg")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("thumb", "a")
		k2 := CacheKey("thumb", "b")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "sx:" {
			t.Errorf("expected sx: prefix, got %q", k[:3])
		}
	})
}

func TestCacheThumbnailRoundTrip(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	url := "https://i.ytimg.com/vi/jNQXAC9IVRw/hqdefault.jpg"

	if _, ok := CacheGetThumbnail(ctx, url); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheSetThumbnail(ctx, url, Thumbnail{ContentType: "image/jpeg", Body: []byte{0xff, 0xd8, 0xff}})

	got, ok := CacheGetThumbnail(ctx, url)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if got.ContentType != "image/jpeg" || len(got.Body) != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestCacheExpiration(t *testing.T) {
	InitCache("", time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		CacheSet(ctx, CacheKey("evict", fmt.Sprintf("item-%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	thumbCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", time.Minute, 100, 5*time.Minute)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheGet(ctx, key)
	if _, misses := CacheStats(); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	CacheSet(ctx, key, []byte("x"))
	CacheGet(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
