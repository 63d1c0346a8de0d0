package cache

import (
	"context"
	"journalsummarizer/internal/prompt"
	"strings"
	"testing"
	"time"
)

func newTestMemory(t *testing.T, maxEntries int, maxBytes int) (*Memory, *time.Time) {
	t.Helper()

	c := NewMemory(maxEntries, maxBytes)
	if c == nil {
		t.Fatalf("expected cache instance")
	}

	now := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	return c, &now
}

func mustSet(t *testing.T, c Cache, key string, summary string, ttl time.Duration) {
	t.Helper()

	if err := c.Set(context.Background(), key, summary, ttl); err != nil {
		t.Fatalf("set %q: %v", key, err)
	}
}

func hit(t *testing.T, c Cache, key string) (string, bool) {
	t.Helper()

	summary, ok, err := c.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %q: %v", key, err)
	}

	return summary, ok
}

func TestMemoryServesSummaryUntilTTL(t *testing.T) {
	c, now := newTestMemory(t, 4, 0)

	mustSet(t, c, "weekly", "## Highlights", time.Minute)

	if got, ok := hit(t, c, "weekly"); !ok || got != "## Highlights" {
		t.Fatalf("expected hit, got %q (ok = %v)", got, ok)
	}

	*now = now.Add(time.Minute)

	if _, ok := hit(t, c, "weekly"); ok {
		t.Fatalf("expected summary to expire at its TTL")
	}

	if c.Len() != 0 || c.Bytes() != 0 {
		t.Fatalf("expected expired summary to be dropped, got %d entries, %d bytes", c.Len(), c.Bytes())
	}
}

func TestMemoryOverwriteRefreshesTTLAndSize(t *testing.T) {
	c, now := newTestMemory(t, 4, 0)

	mustSet(t, c, "weekly", "short", time.Minute)
	*now = now.Add(50 * time.Second)
	mustSet(t, c, "weekly", "a longer summary", time.Minute)
	*now = now.Add(30 * time.Second)

	if got, ok := hit(t, c, "weekly"); !ok || got != "a longer summary" {
		t.Fatalf("expected refreshed summary, got %q (ok = %v)", got, ok)
	}

	if c.Len() != 1 || c.Bytes() != len("a longer summary") {
		t.Fatalf("unexpected accounting: %d entries, %d bytes", c.Len(), c.Bytes())
	}
}

func TestMemoryEvictsLeastRecentlyReadByCount(t *testing.T) {
	c, _ := newTestMemory(t, 2, 0)

	mustSet(t, c, "mon", "monday", time.Hour)
	mustSet(t, c, "tue", "tuesday", time.Hour)
	hit(t, c, "mon")
	mustSet(t, c, "wed", "wednesday", time.Hour)

	if _, ok := hit(t, c, "tue"); ok {
		t.Fatalf("expected the least recently read summary to be evicted")
	}

	for _, key := range []string{"mon", "wed"} {
		if _, ok := hit(t, c, key); !ok {
			t.Fatalf("expected %q to stay cached", key)
		}
	}
}

func TestMemoryEvictsByByteBudget(t *testing.T) {
	c, _ := newTestMemory(t, 10, 20)

	mustSet(t, c, "a", strings.Repeat("a", 8), time.Hour)
	mustSet(t, c, "b", strings.Repeat("b", 8), time.Hour)
	mustSet(t, c, "c", strings.Repeat("c", 8), time.Hour)

	if _, ok := hit(t, c, "a"); ok {
		t.Fatalf("expected oldest summary to be evicted to fit the byte budget")
	}

	if c.Len() != 2 || c.Bytes() != 16 {
		t.Fatalf("unexpected accounting: %d entries, %d bytes", c.Len(), c.Bytes())
	}

	mustSet(t, c, "huge", strings.Repeat("h", 21), time.Hour)

	if _, ok := hit(t, c, "huge"); ok {
		t.Fatalf("expected summary larger than the budget to be skipped")
	}

	if c.Len() != 2 {
		t.Fatalf("expected oversized summary not to evict others, got %d entries", c.Len())
	}
}

func TestMemorySetDropsExpiredSummaries(t *testing.T) {
	c, now := newTestMemory(t, 10, 0)

	mustSet(t, c, "old", "stale", time.Minute)
	*now = now.Add(2 * time.Minute)
	mustSet(t, c, "new", "fresh", time.Minute)

	if c.Len() != 1 || c.Bytes() != len("fresh") {
		t.Fatalf("expected expired summary to be swept on set, got %d entries, %d bytes", c.Len(), c.Bytes())
	}
}

func TestMemoryIgnoresUnusableValues(t *testing.T) {
	c, _ := newTestMemory(t, 4, 0)

	mustSet(t, c, "", "summary", time.Hour)
	mustSet(t, c, "empty", "", time.Hour)
	mustSet(t, c, "no-ttl", "summary", 0)

	if c.Len() != 0 {
		t.Fatalf("expected nothing to be cached, got %d entries", c.Len())
	}
}

func TestMemoryHonorsCanceledContext(t *testing.T) {
	c, _ := newTestMemory(t, 4, 0)
	mustSet(t, c, "weekly", "summary", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Get(ctx, "weekly"); err == nil {
		t.Fatalf("expected context error from Get")
	}

	if err := c.Set(ctx, "other", "summary", time.Hour); err == nil {
		t.Fatalf("expected context error from Set")
	}
}

func TestNilMemoryNeverHits(t *testing.T) {
	if NewMemory(0, 0) != nil {
		t.Fatalf("expected disabled cache to be nil")
	}

	var c *Memory
	mustSet(t, c, "k", "v", time.Minute)

	if _, ok := hit(t, c, "k"); ok {
		t.Fatalf("expected nil cache to miss")
	}
}

func TestKey(t *testing.T) {
	msgs := prompt.Messages{System: "sys", User: "user"}

	keyA := Key(" gpt-4o-mini ", msgs)
	keyB := Key("gpt-4o-mini", msgs)

	if keyA == "" || keyA != keyB {
		t.Fatalf("expected matching non-empty keys, got %q vs %q", keyA, keyB)
	}

	if Key("gpt-4.1", msgs) == keyA {
		t.Fatalf("expected model to be part of the key")
	}

	if Key("gpt-4o-mini", prompt.Messages{System: "sys", User: "other"}) == keyA {
		t.Fatalf("expected user message to be part of the key")
	}

	if key := Key("gpt-4o-mini", prompt.Messages{System: "sys", User: "  "}); key != "" {
		t.Fatalf("expected empty key for blank user message, got %q", key)
	}
}
