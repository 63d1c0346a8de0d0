package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxBytes caps the summary text held by a Memory cache.
const DefaultMaxBytes = 4 << 20

// Memory keeps recent summaries in process. It evicts the least recently
// read summary once either the entry count or the total summary size goes
// over its limit. Expired summaries are dropped lazily.
type Memory struct {
	mu         sync.Mutex
	byKey      map[string]*list.Element
	recency    *list.List // front is most recently used
	maxEntries int
	maxBytes   int
	usedBytes  int
	now        func() time.Time
}

type cachedSummary struct {
	key       string
	text      string
	expiresAt time.Time
}

// NewMemory returns nil when maxEntries is not positive; a nil *Memory is a
// valid cache that never hits. maxBytes <= 0 means DefaultMaxBytes.
func NewMemory(maxEntries int, maxBytes int) *Memory {
	if maxEntries <= 0 {
		return nil
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Memory{
		byKey:      make(map[string]*list.Element, maxEntries),
		recency:    list.New(),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

func (c *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if c == nil || key == "" {
		return "", false, nil
	}

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.byKey[key]
	if !ok {
		return "", false, nil
	}

	cached := elem.Value.(*cachedSummary) //nolint:forcetypeassert // only *cachedSummary is stored
	if !c.now().Before(cached.expiresAt) {
		c.dropLocked(elem)

		return "", false, nil
	}

	c.recency.MoveToFront(elem)

	return cached.text, true, nil
}

// Set stores summary for ttl. Summaries larger than the byte budget, blank
// keys and non-positive TTLs are ignored.
func (c *Memory) Set(ctx context.Context, key string, summary string, ttl time.Duration) error {
	if c == nil || key == "" || summary == "" || ttl <= 0 || len(summary) > c.maxBytes {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if elem, ok := c.byKey[key]; ok {
		c.dropLocked(elem)
	}

	c.byKey[key] = c.recency.PushFront(&cachedSummary{
		key:       key,
		text:      summary,
		expiresAt: now.Add(ttl),
	})
	c.usedBytes += len(summary)

	c.shrinkLocked(now)

	return nil
}

func (c *Memory) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.byKey)
}

// Bytes reports the summary text currently held.
func (c *Memory) Bytes() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.usedBytes
}

// shrinkLocked drops expired summaries first, then the least recently used
// ones until both limits hold.
func (c *Memory) shrinkLocked(now time.Time) {
	var stale []*list.Element
	for elem := c.recency.Front(); elem != nil; elem = elem.Next() {
		if !now.Before(elem.Value.(*cachedSummary).expiresAt) { //nolint:forcetypeassert // only *cachedSummary is stored
			stale = append(stale, elem)
		}
	}

	for _, elem := range stale {
		c.dropLocked(elem)
	}

	for len(c.byKey) > c.maxEntries || c.usedBytes > c.maxBytes {
		oldest := c.recency.Back()
		if oldest == nil {
			return
		}
		c.dropLocked(oldest)
	}
}

func (c *Memory) dropLocked(elem *list.Element) {
	cached := c.recency.Remove(elem).(*cachedSummary) //nolint:forcetypeassert // only *cachedSummary is stored

	delete(c.byKey, cached.key)
	c.usedBytes -= len(cached.text)
}
