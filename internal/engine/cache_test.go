package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("video_list", "캠핑")
		k2 := CacheKey("video_list", "캠핑")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("video_list", "캠핑")
		k2 := CacheKey("video_list", "힐링")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "gt:" {
			t.Errorf("expected gt: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	// Init minimal cache (no Redis)
	InitCache("", 1*time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheSet(ctx, key, []byte("hello"))

	got, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}

	CacheInvalidate(ctx, key)
	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after invalidate")
	}
}

func TestCacheJSON(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	ctx := context.Background()
	key := CacheKey("json", "records")

	in := []RawVideoRecord{{ExternalID: "abc123", Title: "제주 여행"}}
	CacheStoreJSON(ctx, key, in)

	out, ok := CacheLoadJSON[[]RawVideoRecord](ctx, key)
	if !ok {
		t.Fatal("expected JSON cache hit")
	}
	if len(out) != 1 || out[0].ExternalID != "abc123" {
		t.Errorf("unexpected decoded value: %+v", out)
	}

	CacheSet(ctx, key, []byte("not json"))
	if _, ok := CacheLoadJSON[[]RawVideoRecord](ctx, key); ok {
		t.Error("expected miss on corrupt entry")
	}
}

func TestCacheExpiration(t *testing.T) {
	// Init with very short TTL
	InitCache("", 1*time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	// maxEntries=3
	InitCache("", 1*time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := CacheKey("evict", fmt.Sprintf("item-%d", i))
		CacheSet(ctx, key, []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	toolCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	// Reset counters
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheGet(ctx, key)
	_, misses := CacheStats()
	if misses != 1 {
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

func TestInitCacheStopsPreviousCleanup(t *testing.T) {
	InitCache("", time.Minute, 100, 10*time.Millisecond)
	old := toolCache

	InitCache("", time.Minute, 100, 10*time.Millisecond)
	if toolCache == old {
		t.Fatal("expected a new cache")
	}
	select {
	case <-old.stop:
	case <-time.After(time.Second):
		t.Fatal("previous cache cleanup loop was not stopped")
	}
	select {
	case <-toolCache.stop:
		t.Fatal("current cache must keep running")
	default:
	}
}
